// Package cache implements Bengal's incremental-build subsystem: file
// fingerprints, the persisted BuildCache, the forward/reverse dependency
// graph, change classification, and the CacheCoordinator that gates every
// invalidation. It is the one package allowed to open the on-disk cache
// database directly; everything else goes through Coordinator.
package cache

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies the state of a single file at the time it was last
// processed. Size and ModTime are cheap to compare on every build; Hash is
// the authoritative tie-breaker when a filesystem reports a changed mtime
// but the bytes are identical (e.g. after a git checkout).
type Fingerprint struct {
	Size    int64
	ModTime time.Time
	Hash    uint64
}

// Changed reports whether other differs from f in any field that matters:
// size or hash differing always counts; a changed mtime with an unchanged
// hash does not, since content is what the rest of the pipeline cares about.
func (f Fingerprint) Changed(other Fingerprint) bool {
	if f.Size != other.Size {
		return true
	}
	return f.Hash != other.Hash
}

// FingerprintFile computes the Fingerprint of a file on disk.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, err
	}

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, err
	}

	return Fingerprint{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Hash:    h.Sum64(),
	}, nil
}

// HashBytes fingerprints an in-memory buffer (used for rendered output and
// for sources that are not themselves files, e.g. merged cascade metadata).
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// WalkFiles returns every regular file under root as a path relative to
// root, with forward slashes. A missing root yields an empty, error-free
// result rather than failing, since callers (the output collector in
// particular) may run before anything has been written yet.
func WalkFiles(root string) ([]string, error) {
	var out []string
	if _, err := os.Stat(root); err != nil {
		return out, nil
	}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}
