package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever the table layout changes in a way that
// makes an older cache file unreadable. A mismatch is not an error: Open
// falls back to an empty Cache, which simply means the next build is a full
// build, exactly as a missing cache file would.
const schemaVersion = 1

// Cache is the persisted, queryable build cache: per-file fingerprints,
// parsed content, rendered output, the dependency graph, and the
// taxonomy/output snapshots needed to detect structural changes between
// builds. It is backed by a single SQLite file (modernc.org/sqlite, pure
// Go, no cgo) chosen over a bespoke binary format because it gives
// partial, indexed reads of a large cache for free.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the BuildCache at path. A missing file, a
// corrupt file, or a schema-version mismatch all result in a fresh, empty
// Cache rather than an error — the caller always gets something it can
// build against.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return emptyCache(path), nil
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	c := &Cache{db: db, path: path}
	if err := c.init(); err != nil {
		db.Close()
		os.Remove(path)
		return emptyCache(path), nil
	}
	return c, nil
}

func emptyCache(path string) *Cache {
	db, _ := sql.Open("sqlite", ":memory:")
	c := &Cache{db: db, path: path}
	_ = c.init()
	return c
}

func (c *Cache) init() error {
	var v int
	row := c.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`)
	if err := row.Scan(&v); err == nil {
		if v != schemaVersion {
			return fmt.Errorf("cache schema version %d != %d", v, schemaVersion)
		}
		return nil
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`,
		`CREATE TABLE IF NOT EXISTS file_fingerprints (path TEXT PRIMARY KEY, size INTEGER, mtime INTEGER, hash TEXT)`,
		`CREATE TABLE IF NOT EXISTS asset_fingerprints (path TEXT PRIMARY KEY, size INTEGER, mtime INTEGER, hash TEXT)`,
		`CREATE TABLE IF NOT EXISTS data_file_fingerprints (path TEXT PRIMARY KEY, size INTEGER, mtime INTEGER, hash TEXT)`,
		`CREATE TABLE IF NOT EXISTS parsed_content (page_key TEXT PRIMARY KEY, html TEXT, toc TEXT, source_hash TEXT)`,
		`CREATE TABLE IF NOT EXISTS rendered_output (page_key TEXT PRIMARY KEY, output_path TEXT, content_hash TEXT)`,
		`CREATE TABLE IF NOT EXISTS autodoc_source_metadata (source_name TEXT PRIMARY KEY, fingerprint TEXT)`,
		`CREATE TABLE IF NOT EXISTS dependency_graph (page_key TEXT PRIMARY KEY, inputs TEXT)`,
		`CREATE TABLE IF NOT EXISTS taxonomy_snapshot (key TEXT PRIMARY KEY, terms TEXT)`,
		`CREATE TABLE IF NOT EXISTS output_snapshot (output_path TEXT PRIMARY KEY, content_hash TEXT)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return err
		}
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', ?)`, fmt.Sprint(schemaVersion))
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileFingerprint returns the recorded Fingerprint for path, if any.
func (c *Cache) FileFingerprint(path string) (Fingerprint, bool) {
	return c.getFingerprint("file_fingerprints", path)
}

// SetFileFingerprint records a file's Fingerprint.
func (c *Cache) SetFileFingerprint(path string, fp Fingerprint) error {
	return c.setFingerprint("file_fingerprints", path, fp)
}

// AssetFingerprint and DataFileFingerprint mirror FileFingerprint for the
// other two fingerprinted input classes (static assets, data files).
func (c *Cache) AssetFingerprint(path string) (Fingerprint, bool) {
	return c.getFingerprint("asset_fingerprints", path)
}

func (c *Cache) SetAssetFingerprint(path string, fp Fingerprint) error {
	return c.setFingerprint("asset_fingerprints", path, fp)
}

func (c *Cache) DataFileFingerprint(path string) (Fingerprint, bool) {
	return c.getFingerprint("data_file_fingerprints", path)
}

func (c *Cache) SetDataFileFingerprint(path string, fp Fingerprint) error {
	return c.setFingerprint("data_file_fingerprints", path, fp)
}

func (c *Cache) getFingerprint(table, path string) (Fingerprint, bool) {
	var size int64
	var mtime int64
	var hash string
	row := c.db.QueryRow(fmt.Sprintf(`SELECT size, mtime, hash FROM %s WHERE path = ?`, table), path)
	if err := row.Scan(&size, &mtime, &hash); err != nil {
		return Fingerprint{}, false
	}
	var h uint64
	fmt.Sscanf(hash, "%x", &h)
	return Fingerprint{Size: size, ModTime: time.Unix(0, mtime), Hash: h}, true
}

func (c *Cache) setFingerprint(table, path string, fp Fingerprint) error {
	_, err := c.db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO %s(path, size, mtime, hash) VALUES (?, ?, ?, ?)`, table),
		path, fp.Size, fp.ModTime.UnixNano(), fmt.Sprintf("%x", fp.Hash))
	return err
}

// ParsedContent is the cached output of the markdown-parse phase for one
// page: safe to reuse across builds as long as the source file, its
// front-matter-declared params, and the markdown-parser configuration are
// all unchanged (tracked by sourceHash).
type ParsedContent struct {
	HTML       string
	TOC        string
	SourceHash string
}

func (c *Cache) ParsedContent(pageKey string) (ParsedContent, bool) {
	var pc ParsedContent
	row := c.db.QueryRow(`SELECT html, toc, source_hash FROM parsed_content WHERE page_key = ?`, pageKey)
	if err := row.Scan(&pc.HTML, &pc.TOC, &pc.SourceHash); err != nil {
		return ParsedContent{}, false
	}
	return pc, true
}

func (c *Cache) SetParsedContent(pageKey string, pc ParsedContent) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO parsed_content(page_key, html, toc, source_hash) VALUES (?, ?, ?, ?)`,
		pageKey, pc.HTML, pc.TOC, pc.SourceHash)
	return err
}

// DeleteParsedContent drops a page's cached parse, e.g. for generated pages
// which are never safe to reuse across builds.
func (c *Cache) DeleteParsedContent(pageKey string) error {
	_, err := c.db.Exec(`DELETE FROM parsed_content WHERE page_key = ?`, pageKey)
	return err
}

// RenderedOutput records the content hash of a page's last rendered output,
// used to decide whether a rebuilt page actually changed the output tree
// (and therefore whether the dev server needs to reload the browser).
func (c *Cache) RenderedOutput(pageKey string) (outputPath, contentHash string, ok bool) {
	row := c.db.QueryRow(`SELECT output_path, content_hash FROM rendered_output WHERE page_key = ?`, pageKey)
	if err := row.Scan(&outputPath, &contentHash); err != nil {
		return "", "", false
	}
	return outputPath, contentHash, true
}

func (c *Cache) SetRenderedOutput(pageKey, outputPath, contentHash string) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO rendered_output(page_key, output_path, content_hash) VALUES (?, ?, ?)`,
		pageKey, outputPath, contentHash)
	return err
}

// DeleteRenderedOutput drops a page's recorded rendered-output hash, used by
// Coordinator.InvalidatePage to keep the three cache layers (parsed_content,
// rendered_output, file_fingerprints) clearing atomically.
func (c *Cache) DeleteRenderedOutput(pageKey string) error {
	_, err := c.db.Exec(`DELETE FROM rendered_output WHERE page_key = ?`, pageKey)
	return err
}

// DeleteFileFingerprint drops a page's recorded source fingerprint, forcing
// the next build to treat it as changed regardless of on-disk state.
func (c *Cache) DeleteFileFingerprint(pageKey string) error {
	_, err := c.db.Exec(`DELETE FROM file_fingerprints WHERE path = ?`, pageKey)
	return err
}

// SaveDependencyGraph and LoadDependencyGraph persist/restore the forward
// edge map maintained by DependencyGraph.Snapshot/Load.
func (c *Cache) SaveDependencyGraph(snapshot map[string][]string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM dependency_graph`); err != nil {
		tx.Rollback()
		return err
	}
	for pageKey, inputs := range snapshot {
		data, err := json.Marshal(inputs)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO dependency_graph(page_key, inputs) VALUES (?, ?)`, pageKey, string(data)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *Cache) LoadDependencyGraph() (map[string][]string, error) {
	rows, err := c.db.Query(`SELECT page_key, inputs FROM dependency_graph`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, inputsJSON string
		if err := rows.Scan(&key, &inputsJSON); err != nil {
			return nil, err
		}
		var inputs []string
		if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
			return nil, err
		}
		out[key] = inputs
	}
	return out, rows.Err()
}

// TaxonomySnapshot and OutputSnapshot implement structural-change
// detection: a cheap way to tell "did the set of terms/outputs change at
// all" without re-deriving it from the full page list on every build.
func (c *Cache) TaxonomySnapshot(key string) ([]string, bool) {
	var termsJSON string
	row := c.db.QueryRow(`SELECT terms FROM taxonomy_snapshot WHERE key = ?`, key)
	if err := row.Scan(&termsJSON); err != nil {
		return nil, false
	}
	var terms []string
	if err := json.Unmarshal([]byte(termsJSON), &terms); err != nil {
		return nil, false
	}
	return terms, true
}

func (c *Cache) SetTaxonomySnapshot(key string, terms []string) error {
	data, err := json.Marshal(terms)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`INSERT OR REPLACE INTO taxonomy_snapshot(key, terms) VALUES (?, ?)`, key, string(data))
	return err
}

func (c *Cache) OutputSnapshot() (map[string]string, error) {
	rows, err := c.db.Query(`SELECT output_path, content_hash FROM output_snapshot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		out[path] = hash
	}
	return out, rows.Err()
}

func (c *Cache) ReplaceOutputSnapshot(snapshot map[string]string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM output_snapshot`); err != nil {
		tx.Rollback()
		return err
	}
	for path, hash := range snapshot {
		if _, err := tx.Exec(`INSERT INTO output_snapshot(output_path, content_hash) VALUES (?, ?)`, path, hash); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
