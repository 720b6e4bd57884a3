package seo

import (
	"fmt"

	"github.com/segmentio/encoding/json"
)

// XRefEntry is one page's entry in xref.json: enough to resolve a
// cross-reference marker without re-reading every page's front matter.
type XRefEntry struct {
	CanonicalKey string `json:"canonical_key"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Autodoc      bool   `json:"autodoc,omitempty"`
}

// GenerateXRefIndex renders the site's full set of cross-reference entries
// as xref.json, keyed by canonical key. Publishing it alongside the built
// site lets an external tool (or a future build of a different project)
// resolve [[target]] markers against this site without needing the source
// content tree.
func GenerateXRefIndex(entries []XRefEntry) ([]byte, error) {
	index := make(map[string]XRefEntry, len(entries))
	for _, e := range entries {
		index[e.CanonicalKey] = e
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("seo: marshaling xref index: %w", err)
	}
	return data, nil
}
