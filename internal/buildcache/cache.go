// Package buildcache lets `tsschema build` skip resolution and emission when
// nothing that could change the output has changed.
//
// The cache is conservative: it is trusted only when the format version, the
// effective config, the exact set of graph documents and their canonical
// contents all match, and every previously written schema file still exists.
// Any mismatch means a full rebuild; there is no partial invalidation because
// one declaration's type can be referenced from any other in the same graph.
package buildcache

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	jsoncanonicalizer "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/zeebo/xxh3"
	"sigs.k8s.io/yaml"
)

// SchemaVersion is bumped when the cache format or schema output changes.
// A mismatch forces a full rebuild, so binary upgrades never reuse stale
// outputs.
const SchemaVersion = 1

// FileName is the cache file name inside the output directory.
const FileName = ".tsschema-cache"

// Cache records what was true when the last build succeeded.
type Cache struct {
	V int `json:"v"`

	// ConfigHash fingerprints the effective config, flags included.
	ConfigHash string `json:"configHash"`

	// Inputs maps each graph document path to its content fingerprint.
	Inputs map[string]string `json:"inputs"`

	// Outputs lists the schema files that must still exist for the cache to
	// be valid.
	Outputs []string `json:"outputs"`
}

// CachePath returns the cache location for an output directory. Deleting the
// output directory also removes the cache, guaranteeing a fresh build.
func CachePath(outDir string) string {
	return filepath.Join(outDir, FileName)
}

// Load reads and parses a cache file from disk.
// Returns nil if the file doesn't exist, is unreadable, or is invalid JSON.
// Callers should treat nil as a cache miss.
func Load(path string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}

	return &c
}

// Save writes the cache to disk atomically (write to temp, rename).
// A failed save only means the next build won't benefit from caching.
func Save(path string, cache *Cache) error {
	data, err := json.Marshal(cache, jsontext.WithIndent("  "), json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}

	return nil
}

// Delete removes the cache file from disk. Errors are ignored (file may not exist).
func Delete(path string) {
	os.Remove(path)
}

// IsValid checks whether the cache can be trusted to skip the build.
// ALL of the following must be true simultaneously:
//
//  1. Schema version matches (catches binary upgrades)
//  2. Config fingerprint matches
//  3. The same graph documents are used, with the same fingerprints
//  4. All emitted schema files still exist on disk
func (c *Cache) IsValid(configHash string, inputs map[string]string) bool {
	if c == nil {
		return false
	}
	if c.V != SchemaVersion {
		return false
	}
	if c.ConfigHash != configHash {
		return false
	}
	if !maps.Equal(c.Inputs, inputs) {
		return false
	}
	for _, path := range c.Outputs {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// New creates a new Cache with the current schema version.
func New(configHash string, inputs map[string]string, outputs []string) *Cache {
	return &Cache{
		V:          SchemaVersion,
		ConfigHash: configHash,
		Inputs:     inputs,
		Outputs:    outputs,
	}
}

// Fingerprint hashes the canonical form of a JSON value, so key order and
// whitespace do not matter.
func Fingerprint(jsonData []byte) (string, error) {
	canonical, err := jsoncanonicalizer.Transform(jsonData)
	if err != nil {
		return "", fmt.Errorf("canonicalizing: %w", err)
	}
	h := xxh3.Hash128(canonical)
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo), nil
}

// FingerprintValue marshals v and fingerprints the result.
func FingerprintValue(v any) (string, error) {
	data, err := json.Marshal(v, json.Deterministic(true))
	if err != nil {
		return "", fmt.Errorf("marshaling: %w", err)
	}
	return Fingerprint(data)
}

// FingerprintFile fingerprints a graph document. YAML documents are converted
// to JSON first, so a document and its YAML rendering share a fingerprint.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
	}
	fp, err := Fingerprint(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

// FingerprintFiles fingerprints every path. It fails on the first unreadable
// or malformed file.
func FingerprintFiles(paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		fp, err := FingerprintFile(p)
		if err != nil {
			return nil, err
		}
		out[p] = fp
	}
	return out, nil
}
