package scaffold

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SwizzleRecord tracks one template copied out of a theme into the project,
// per the registry at .bengal/themes/sources.json. Target is the project-
// relative path the user edits; Source is the embedded theme path it came
// from. UpstreamChecksum is the sha256 of Source at copy (or last update)
// time; LocalChecksum is the sha256 of Target at that same moment — the two
// start equal and diverge the moment either side changes.
type SwizzleRecord struct {
	Target           string `json:"target"`
	Source           string `json:"source"`
	Theme            string `json:"theme"`
	UpstreamChecksum string `json:"upstream_checksum"`
	LocalChecksum    string `json:"local_checksum"`
	Timestamp        string `json:"timestamp"`
}

// swizzleRegistryPath returns .bengal/themes/sources.json under siteRoot.
func swizzleRegistryPath(siteRoot string) string {
	return filepath.Join(siteRoot, ".bengal", "themes", "sources.json")
}

// loadSwizzleRegistry reads the registry, returning an empty slice if it
// does not exist yet.
func loadSwizzleRegistry(siteRoot string) ([]SwizzleRecord, error) {
	data, err := os.ReadFile(swizzleRegistryPath(siteRoot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading swizzle registry: %w", err)
	}
	var records []SwizzleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing swizzle registry: %w", err)
	}
	return records, nil
}

func saveSwizzleRegistry(siteRoot string, records []SwizzleRecord) error {
	path := swizzleRegistryPath(siteRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating swizzle registry dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling swizzle registry: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SwizzleTemplate copies a single template out of themeFS into the project
// at content-relative target, recording the copy in the swizzle registry so
// swizzle-update can later tell whether it is safe to refresh.
func SwizzleTemplate(siteRoot string, themeFS fs.FS, theme, source, target string) error {
	data, err := fs.ReadFile(themeFS, source)
	if err != nil {
		return fmt.Errorf("reading theme source %q: %w", source, err)
	}

	dstPath := filepath.Join(siteRoot, target)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", target, err)
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", target, err)
	}

	checksum := sha256Hex(data)
	records, err := loadSwizzleRegistry(siteRoot)
	if err != nil {
		return err
	}
	records = append(removeSwizzleRecord(records, target), SwizzleRecord{
		Target:           target,
		Source:           source,
		Theme:            theme,
		UpstreamChecksum: checksum,
		LocalChecksum:    checksum,
		Timestamp:        nowFunc().UTC().Format("2006-01-02T15:04:05Z"),
	})
	return saveSwizzleRegistry(siteRoot, records)
}

func removeSwizzleRecord(records []SwizzleRecord, target string) []SwizzleRecord {
	out := records[:0]
	for _, r := range records {
		if r.Target != target {
			out = append(out, r)
		}
	}
	return out
}

// ListSwizzled returns every recorded swizzle along with its current update
// state: whether the on-disk target still matches what was recorded
// (unmodified by the user) and whether the upstream theme source has since
// changed.
type SwizzleStatus struct {
	SwizzleRecord
	LocallyModified bool
	UpstreamChanged bool
}

func ListSwizzled(siteRoot string, themeFS fs.FS) ([]SwizzleStatus, error) {
	records, err := loadSwizzleRegistry(siteRoot)
	if err != nil {
		return nil, err
	}

	out := make([]SwizzleStatus, 0, len(records))
	for _, r := range records {
		status := SwizzleStatus{SwizzleRecord: r}

		if onDisk, err := os.ReadFile(filepath.Join(siteRoot, r.Target)); err == nil {
			status.LocallyModified = sha256Hex(onDisk) != r.LocalChecksum
		}
		if upstream, err := fs.ReadFile(themeFS, r.Source); err == nil {
			status.UpstreamChanged = sha256Hex(upstream) != r.UpstreamChecksum
		}
		out = append(out, status)
	}
	return out, nil
}

// SwizzleUpdate re-copies every swizzled template whose upstream source has
// changed, but only when the on-disk target is still byte-identical to what
// was recorded at swizzle time — a target the user has edited is left
// alone, matching the safety rule: update only when
// sha256(current-on-disk) == recorded local_checksum AND
// sha256(upstream) != recorded upstream_checksum.
func SwizzleUpdate(siteRoot string, themeFS fs.FS) (updated []string, skipped []string, err error) {
	records, err := loadSwizzleRegistry(siteRoot)
	if err != nil {
		return nil, nil, err
	}

	for i, r := range records {
		onDisk, readErr := os.ReadFile(filepath.Join(siteRoot, r.Target))
		if readErr != nil {
			skipped = append(skipped, r.Target)
			continue
		}
		upstream, readErr := fs.ReadFile(themeFS, r.Source)
		if readErr != nil {
			skipped = append(skipped, r.Target)
			continue
		}

		upstreamChecksum := sha256Hex(upstream)
		if sha256Hex(onDisk) != r.LocalChecksum || upstreamChecksum == r.UpstreamChecksum {
			skipped = append(skipped, r.Target)
			continue
		}

		if err := os.WriteFile(filepath.Join(siteRoot, r.Target), upstream, 0o644); err != nil {
			return updated, skipped, fmt.Errorf("updating %q: %w", r.Target, err)
		}
		records[i].UpstreamChecksum = upstreamChecksum
		records[i].LocalChecksum = upstreamChecksum
		records[i].Timestamp = nowFunc().UTC().Format("2006-01-02T15:04:05Z")
		updated = append(updated, r.Target)
	}

	if err := saveSwizzleRegistry(siteRoot, records); err != nil {
		return updated, skipped, err
	}
	return updated, skipped, nil
}
