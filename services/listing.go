package services

import (
	"context"
	"fmt"

	"listing_combiner/feed"
	"listing_combiner/models"
	"listing_combiner/storage"
)

// ListingService normalizes parsed listings and writes them through to the store.
type ListingService struct {
	store      storage.Store
	normalizer *Normalizer
}

// NewListingService creates a new ListingService
func NewListingService(store storage.Store, normalizer *Normalizer) *ListingService {
	if normalizer == nil {
		normalizer = NewNormalizer("", nil)
	}
	return &ListingService{
		store:      store,
		normalizer: normalizer,
	}
}

// ProcessListing normalizes one listing and upserts its row. The upsert replaces every
// column of an existing row, so calling it twice with the same listing is a no-op.
func (s *ListingService) ProcessListing(ctx context.Context, listing *feed.Node) (*models.Residential, error) {
	row, err := s.normalizer.Normalize(listing)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	if err := s.store.UpsertResidential(ctx, row); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}

	return row, nil
}
