package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"listing_combiner/config"
	"listing_combiner/models"
)

// ErrUnknownDriver is returned by Open for an unsupported DB_DRIVER value.
var ErrUnknownDriver = errors.New("unknown database driver")

// Store persists normalized listings and run records. Implementations must make
// UpsertResidential atomic per row.
type Store interface {
	UpsertResidential(ctx context.Context, r *models.Residential) error
	// GetResidential returns nil, nil when the identifier is not stored.
	GetResidential(ctx context.Context, uniqueID string) (*models.Residential, error)
	ListResidentials(ctx context.Context, filter models.ResidentialFilter) ([]models.Residential, error)

	CreateRun(ctx context.Context, run *models.CombineRun) error
	UpdateRun(ctx context.Context, run *models.CombineRun) error

	Close() error
}

// Opener opens a Store. The combiner calls it once per run.
type Opener func(ctx context.Context) (Store, error)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite3, DriverSQLite:
		return NewSQLiteStore(cfg.Driver, cfg.Path)
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// NewOpener binds Open to a configuration.
func NewOpener(cfg config.DatabaseConfig) Opener {
	return func(ctx context.Context) (Store, error) {
		return Open(ctx, cfg)
	}
}

// residentialColumns is the column order shared by every backend's SQL.
var residentialColumns = []string{
	"uniqueID", "type", "headline", "description", "price", "priceView", "status",
	"street", "suburb", "state", "postcode", "country",
	"bedrooms", "bathrooms", "carSpaces",
	"floorplan", "gallery", "facilities", "nearby", "site_direction",
	"agent_name", "agent_email", "agent_phone", "agent_photo", "raw_json",
}

// residentialArgs flattens a row into driver-native bind values: nil for NULL,
// int64 for counts.
func residentialArgs(r *models.Residential) []any {
	return []any{
		r.UniqueID, nullString(r.Type), nullString(r.Headline), nullString(r.Description),
		nullString(r.Price), nullString(r.PriceView), nullString(r.Status),
		nullString(r.Street), nullString(r.Suburb), nullString(r.State),
		nullString(r.Postcode), nullString(r.Country),
		nullInt(r.Bedrooms), nullInt(r.Bathrooms), nullInt(r.CarSpaces),
		nullString(r.Floorplan), string(r.Gallery), string(r.Facilities), string(r.Nearby),
		nullString(r.SiteDirection),
		nullString(r.AgentName), nullString(r.AgentEmail), nullString(r.AgentPhone),
		nullString(r.AgentPhoto), string(r.RawJSON),
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// residentialRow holds scan targets; the JSON columns are read as text.
type residentialRow struct {
	r                                  models.Residential
	gallery, facilities, nearby, rawJS *string
}

func (row *residentialRow) dest() []any {
	r := &row.r
	return []any{
		&r.UniqueID, &r.Type, &r.Headline, &r.Description, &r.Price, &r.PriceView, &r.Status,
		&r.Street, &r.Suburb, &r.State, &r.Postcode, &r.Country,
		&r.Bedrooms, &r.Bathrooms, &r.CarSpaces,
		&r.Floorplan, &row.gallery, &row.facilities, &row.nearby, &r.SiteDirection,
		&r.AgentName, &r.AgentEmail, &r.AgentPhone, &r.AgentPhoto, &row.rawJS,
	}
}

func (row *residentialRow) residential() models.Residential {
	r := row.r
	r.Gallery = rawOr(row.gallery, `[]`)
	r.Facilities = rawOr(row.facilities, `{}`)
	r.Nearby = rawOr(row.nearby, `{}`)
	r.RawJSON = rawOr(row.rawJS, `{}`)
	return r
}

func rawOr(s *string, fallback string) []byte {
	if s == nil || *s == "" {
		return []byte(fallback)
	}
	return []byte(*s)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
