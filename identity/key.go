package identity

import (
	"strings"

	"listing_combiner/feed"
)

// UniqueIDField is the listing child that carries the cross-feed identifier.
const UniqueIDField = "uniqueID"

// Key returns the listing's unique identifier. Surrounding whitespace is not part of
// the identifier; a missing or blank uniqueID reports false.
func Key(listing *feed.Node) (string, bool) {
	id := strings.TrimSpace(listing.ChildText(UniqueIDField))
	if id == "" {
		return "", false
	}
	return id, true
}
