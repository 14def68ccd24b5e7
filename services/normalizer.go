package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"listing_combiner/extract"
	"listing_combiner/feed"
	"listing_combiner/identity"
	"listing_combiner/models"
)

// DefaultSiteDirectionKey is the extra field copied into the site_direction column.
const DefaultSiteDirectionKey = "streetAddress"

// Normalizer projects parsed listings onto the flat properties schema.
type Normalizer struct {
	siteDirectionKey string
	phoneTypes       []string
}

// NewNormalizer creates a Normalizer. Empty arguments fall back to the defaults.
func NewNormalizer(siteDirectionKey string, phoneTypes []string) *Normalizer {
	if siteDirectionKey == "" {
		siteDirectionKey = DefaultSiteDirectionKey
	}
	if len(phoneTypes) == 0 {
		phoneTypes = extract.DefaultPhoneTypes
	}
	return &Normalizer{
		siteDirectionKey: siteDirectionKey,
		phoneTypes:       phoneTypes,
	}
}

// Normalize maps one listing to a Residential row. The listing must carry a uniqueID.
func (n *Normalizer) Normalize(listing *feed.Node) (*models.Residential, error) {
	id, ok := identity.Key(listing)
	if !ok {
		return nil, fmt.Errorf("listing has no %s", identity.UniqueIDField)
	}

	address := listing.Child("address")
	features := listing.Child("features")
	objects := listing.Child("objects")
	agent := extract.Agent(listing.Field("listingAgent"), n.phoneTypes)

	gallery, err := json.Marshal(extract.Gallery(objects))
	if err != nil {
		return nil, fmt.Errorf("marshal gallery: %w", err)
	}
	facilities, err := snapshot(features)
	if err != nil {
		return nil, fmt.Errorf("marshal facilities: %w", err)
	}
	nearby, err := snapshot(listing.Child("nearby"))
	if err != nil {
		return nil, fmt.Errorf("marshal nearby: %w", err)
	}
	raw, err := json.Marshal(listing)
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}

	return &models.Residential{
		UniqueID:      id,
		Type:          optional(listing.Child("category").Attr("name")),
		Headline:      optional(listing.ChildText("headline")),
		Description:   optional(listing.ChildText("description")),
		Price:         optional(listing.ChildText("price")),
		PriceView:     optional(listing.ChildText("priceView")),
		Status:        optional(listing.Attr("status")),
		Street:        optional(address.ChildText("street")),
		Suburb:        optional(address.ChildText("suburb")),
		State:         optional(address.ChildText("state")),
		Postcode:      optional(address.ChildText("postcode")),
		Country:       optional(address.ChildText("country")),
		Bedrooms:      ParseCount(features.ChildText("bedrooms")),
		Bathrooms:     ParseCount(features.ChildText("bathrooms")),
		CarSpaces:     ParseCount(features.ChildText("garages")),
		Floorplan:     extract.Floorplan(objects),
		Gallery:       gallery,
		Facilities:    facilities,
		Nearby:        nearby,
		SiteDirection: extract.ExtraField(listing.Field("extraFields"), n.siteDirectionKey),
		AgentName:     agent.Name,
		AgentEmail:    agent.Email,
		AgentPhone:    agent.Phone,
		AgentPhoto:    agent.Photo,
		RawJSON:       raw,
	}, nil
}

// snapshot serializes an optional sub-structure; absent becomes an empty object.
func snapshot(n *feed.Node) (json.RawMessage, error) {
	if n == nil || n.IsLeaf() && n.Text == "" {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(n)
}

// ParseCount reads a leading integer the way feeds write counts ("3", " 2 ", "4.5").
// Anything without leading digits is nil, not zero.
func ParseCount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	digits := 0
	var v int64
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		v = v*10 + int64(s[digits]-'0')
		digits++
		if v > math.MaxInt32 {
			return nil
		}
	}
	if digits == 0 {
		return nil
	}
	if neg {
		v = -v
	}
	n := int(v)
	return &n
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
