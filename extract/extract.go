// Package extract pulls optional sub-structures out of a parsed listing. Every function
// tolerates absent, single and repeated shapes and reports "not found" as nil.
package extract

import (
	"strings"

	"listing_combiner/feed"
	"listing_combiner/models"
)

// DefaultPhoneTypes is the order in which agent telephone types are tried.
var DefaultPhoneTypes = []string{"mobile", "BH"}

// ExtraField returns the value of the key/value pair named key. A pair is an element
// with a name attribute; an element without one is treated as a container of pairs.
func ExtraField(fields feed.Field, key string) *string {
	for _, pair := range extraPairs(fields) {
		if pair.Attr("name") == key {
			return nonEmpty(pair.Attr("value"))
		}
	}
	return nil
}

func extraPairs(fields feed.Field) []*feed.Node {
	var pairs []*feed.Node
	for _, n := range fields.Nodes() {
		if n.HasAttr("name") {
			pairs = append(pairs, n)
			continue
		}
		for _, c := range n.Children {
			if c.HasAttr("name") {
				pairs = append(pairs, c)
			}
		}
	}
	return pairs
}

// Phone returns the text of the first telephone whose type attribute matches.
func Phone(tels feed.Field, phoneType string) *string {
	for _, tel := range tels.Nodes() {
		if tel.Attr("type") == phoneType {
			return nonEmpty(tel.Text)
		}
	}
	return nil
}

// Agent picks the first listing agent carrying a name, email or telephone.
func Agent(agents feed.Field, phoneTypes []string) models.Agent {
	if len(phoneTypes) == 0 {
		phoneTypes = DefaultPhoneTypes
	}

	for _, a := range agents.Nodes() {
		name := nonEmpty(a.ChildText("name"))
		email := nonEmpty(a.ChildText("email"))
		tels := a.Field("telephone")
		if name == nil && email == nil && !hasContent(tels) {
			continue
		}

		agent := models.Agent{
			Name:  name,
			Email: email,
			Photo: photo(a.Child("photo")),
		}
		for _, t := range phoneTypes {
			if p := Phone(tels, t); p != nil {
				agent.Phone = p
				break
			}
		}
		return agent
	}
	return models.Agent{}
}

// photo accepts either <photo>url</photo> or <photo url="..."/>.
func photo(n *feed.Node) *string {
	if n == nil {
		return nil
	}
	if p := nonEmpty(n.Text); p != nil {
		return p
	}
	return nonEmpty(n.Attr("url"))
}

// Floorplan returns the url of the first floorplan object exposing one.
func Floorplan(objects *feed.Node) *string {
	for _, fp := range objects.Field("floorplan").Nodes() {
		if url := nonEmpty(fp.Attr("url")); url != nil {
			return url
		}
	}
	return nil
}

// Gallery collects image urls in source order. It never returns nil.
func Gallery(objects *feed.Node) []string {
	urls := []string{}
	for _, img := range objects.Field("img").Nodes() {
		if url := img.Attr("url"); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

func hasContent(f feed.Field) bool {
	for _, n := range f.Nodes() {
		if !n.IsEmpty() {
			return true
		}
	}
	return false
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
