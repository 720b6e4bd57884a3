package cache

import (
	"github.com/segmentio/encoding/json"
)

// ManifestEntry is one page's rebuild record in a RebuildManifest.
type ManifestEntry struct {
	PageKey string `json:"page_key"`
	Reason  string `json:"reason"`
	Via     string `json:"via,omitempty"`
}

// Manifest is the --explain / --explain-json payload: the full set of
// pages rebuilt in a given build and why.
type Manifest struct {
	Full    bool            `json:"full"`
	Reason  string          `json:"reason,omitempty"` // set when Full, e.g. "structural_change"
	Entries []ManifestEntry `json:"entries,omitempty"`
}

// NewManifest converts classifier output into an exportable Manifest.
func NewManifest(entries []RebuildEntry) *Manifest {
	m := &Manifest{Entries: make([]ManifestEntry, 0, len(entries))}
	for _, e := range entries {
		m.Entries = append(m.Entries, ManifestEntry{
			PageKey: e.PageKey,
			Reason:  e.Reason.String(),
			Via:     e.Via,
		})
	}
	return m
}

// NewFullManifest builds a Manifest describing a forced full build, e.g.
// after a structural_change or config_changed input.
func NewFullManifest(reason string) *Manifest {
	return &Manifest{Full: true, Reason: reason}
}

// JSON renders the manifest as compact JSON via segmentio/encoding, which
// the rest of the cache subsystem also uses for its on-disk snapshots.
func (m *Manifest) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Explain renders the manifest as a human-readable form: one line per
// page, grouped implicitly by reason order.
func (m *Manifest) Explain() string {
	if m.Full {
		reason := m.Reason
		if reason == "" {
			reason = "unknown"
		}
		return "full build (" + reason + ")\n"
	}

	out := ""
	for _, e := range m.Entries {
		line := e.PageKey + ": " + e.Reason
		if e.Via != "" {
			line += " via " + e.Via
		}
		out += line + "\n"
	}
	if out == "" {
		out = "no pages to rebuild\n"
	}
	return out
}
