package toolchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/inferara/infs/api"
)

// CacheFile is the manifest cache location relative to the infs home.
const CacheFile = "cache/manifest.json"

// ManifestCache keeps the last fetched manifest in a single file. All
// operations are best-effort: unreadable or corrupt entries are misses, and
// write failures are only logged.
type ManifestCache struct {
	fs     billy.Filesystem
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewManifestCache returns a cache stored in fs. A nil now uses time.Now; a
// nil logger uses slog.Default().
func NewManifestCache(fs billy.Filesystem, ttl time.Duration, now func() time.Time, logger *slog.Logger) *ManifestCache {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ManifestCache{fs: fs, ttl: ttl, now: now, logger: logger}
}

// Load returns the cached manifest when one exists and is younger than the
// TTL. A file that does not decode is removed.
func (c *ManifestCache) Load() (*api.ReleaseManifest, bool) {
	data, err := c.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Manifest cache unreadable.", "path", CacheFile, "error", err)
		}
		return nil, false
	}

	cached, err := decodeCached(data)
	if err != nil {
		c.logger.Debug("Discarding corrupt manifest cache.", "path", CacheFile, "error", err)
		if rmErr := c.fs.Remove(CacheFile); rmErr != nil {
			c.logger.Debug("Failed to remove corrupt manifest cache.", "error", rmErr)
		}
		return nil, false
	}

	if !c.fresh(cached.Timestamp) {
		c.logger.Debug("Manifest cache expired.", "timestamp", cached.Timestamp, "ttl", c.ttl)
		return nil, false
	}
	return &cached.Manifest, true
}

// fresh reports whether now - timestamp < ttl, in whole seconds. A
// timestamp in the future counts as age zero.
func (c *ManifestCache) fresh(timestamp uint64) bool {
	now := c.now().Unix()
	age := uint64(0)
	if now > 0 && uint64(now) > timestamp {
		age = uint64(now) - timestamp
	}
	return age < uint64(c.ttl/time.Second)
}

// Save stores m with the current time. Failures are logged and swallowed;
// they only cost a refetch later.
func (c *ManifestCache) Save(m *api.ReleaseManifest) {
	if err := c.write(m); err != nil {
		c.logger.Debug("Failed to write manifest cache.", "path", CacheFile, "error", err)
	}
}

// Clear removes the cache file if present.
func (c *ManifestCache) Clear() error {
	err := c.fs.Remove(CacheFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove manifest cache: %w", err)
	}
	return nil
}

func (c *ManifestCache) read() ([]byte, error) {
	f, err := c.fs.Open(CacheFile)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (c *ManifestCache) write(m *api.ReleaseManifest) error {
	cached := api.CachedManifest{Manifest: *m, Timestamp: uint64(max(c.now().Unix(), 0))}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := path.Dir(CacheFile)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// Atomic write: temp file in same dir, then rename
	tmp, err := c.fs.TempFile(dir, ".manifest-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := c.fs.Rename(tmpName, CacheFile); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", CacheFile, err)
	}
	return nil
}

// decodeCached parses a cache entry. Unknown fields and a missing schema
// version mean the file was written by an older layout and is rejected.
func decodeCached(data []byte) (*api.CachedManifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cached api.CachedManifest
	if err := dec.Decode(&cached); err != nil {
		return nil, err
	}
	if cached.Manifest.SchemaVersion == 0 {
		return nil, errors.New("missing schema_version")
	}
	return &cached, nil
}
