package toolchain

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/inferara/infs/api"
	"github.com/inferara/infs/internal/config"
)

// Resolver answers "which artifact should be installed" from a cached or
// freshly fetched manifest. One call performs at most one network round
// trip.
type Resolver struct {
	source Source
	cache  *ManifestCache
	fetch  *fetcher
	logger *slog.Logger
}

type resolverOptions struct {
	client *http.Client
	fs     billy.Filesystem
	now    func() time.Time
	logger *slog.Logger
	source Source
}

// Option customises a Resolver.
type Option func(*resolverOptions)

// WithHTTPClient replaces the default client (which has cfg.Timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(o *resolverOptions) { o.client = c }
}

// WithFilesystem stores the cache in fs instead of cfg.Home.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *resolverOptions) { o.fs = fs }
}

// WithClock sets the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *resolverOptions) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = l }
}

// WithSource overrides the source selected by cfg.Source.
func WithSource(s Source) Option {
	return func(o *resolverOptions) { o.source = s }
}

// NewResolver builds a Resolver from cfg.
func NewResolver(cfg *config.Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := resolverOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: cfg.Timeout}
	}
	if o.fs == nil {
		o.fs = osfs.New(cfg.Home)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.source == nil {
		src, err := NewSource(cfg, o.client)
		if err != nil {
			return nil, err
		}
		o.source = src
	}
	return &Resolver{
		source: o.source,
		cache:  NewManifestCache(o.fs, cfg.CacheTTL, o.now, o.logger),
		fetch:  newFetcher(o.client, "", false),
		logger: o.logger,
	}, nil
}

// Cache exposes the manifest cache.
func (r *Resolver) Cache() *ManifestCache { return r.cache }

// FetchManifest returns the cached manifest when fresh, otherwise fetches
// it and refreshes the cache.
func (r *Resolver) FetchManifest(ctx context.Context) (*api.ReleaseManifest, error) {
	if m, ok := r.cache.Load(); ok {
		r.logger.Debug("Using cached manifest.", "path", CacheFile)
		return m, nil
	}
	return r.Refresh(ctx)
}

// Refresh fetches the manifest from the network, bypassing the cache, and
// stores the result.
func (r *Resolver) Refresh(ctx context.Context) (*api.ReleaseManifest, error) {
	r.logger.Debug("Fetching manifest.", "url", r.source.Location())
	m, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Save(m)
	return m, nil
}

// FetchArtifact resolves version ("" or "latest" for the newest stable
// release) to the compiler toolchain artifact for platform.
func (r *Resolver) FetchArtifact(ctx context.Context, version string, platform Platform) (string, api.PlatformArtifact, error) {
	m, err := r.FetchManifest(ctx)
	if err != nil {
		return "", api.PlatformArtifact{}, err
	}
	return SelectArtifact(m, version, platform)
}

// FetchInfsArtifact resolves the toolchain manager's own artifact from the
// newest stable release that ships one.
func (r *Resolver) FetchInfsArtifact(ctx context.Context, platform Platform) (string, api.PlatformArtifact, error) {
	m, err := r.FetchManifest(ctx)
	if err != nil {
		return "", api.PlatformArtifact{}, err
	}
	version := m.LatestInfs
	if version == "" {
		version = m.LatestStable
	}
	a, ok := m.FindInfsArtifact(string(platform))
	if !ok {
		return "", api.PlatformArtifact{}, &ArtifactNotFoundError{Tool: ToolInfs, Platform: platform, Version: version}
	}
	return version, *a, nil
}

// SelectArtifact picks the version and platform artifact from m.
func SelectArtifact(m *api.ReleaseManifest, version string, platform Platform) (string, api.PlatformArtifact, error) {
	if version == "" || version == LatestAlias {
		version = m.LatestStable
		if version == "" {
			version = newestStable(m.Versions)
		}
		if version == "" {
			return "", api.PlatformArtifact{}, &VersionNotFoundError{Version: LatestAlias}
		}
	}

	v, ok := m.FindVersion(version)
	if !ok {
		return "", api.PlatformArtifact{}, &VersionNotFoundError{Version: version}
	}
	a, ok := v.FindArtifact(string(platform))
	if !ok {
		return "", api.PlatformArtifact{}, &ArtifactNotFoundError{Tool: ToolInfc, Platform: platform, Version: version}
	}
	return version, *a, nil
}
