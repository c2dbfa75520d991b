package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/inferara/infs/api"
	"github.com/inferara/infs/internal/config"
)

// Source fetches a release manifest from the network.
type Source interface {
	// Fetch downloads and normalises the manifest.
	Fetch(ctx context.Context) (*api.ReleaseManifest, error)
	// Location is the URL Fetch reads.
	Location() string
}

// NewSource returns the Source selected by cfg.Source.
func NewSource(cfg *config.Config, client *http.Client) (Source, error) {
	url := cfg.ManifestLocation()
	switch cfg.Source {
	case config.SourceGitHub:
		return &githubSource{url: url, fetch: newFetcher(client, cfg.Token, true)}, nil
	case config.SourceReleases:
		return &releasesSource{url: url, fetch: newFetcher(client, "", false)}, nil
	case config.SourceStatic:
		return &staticSource{url: url, fetch: newFetcher(client, "", false)}, nil
	}
	return nil, &config.Error{Key: config.SourceEnv, Value: string(cfg.Source), Reason: "unknown manifest source"}
}

// githubSource lists releases through the GitHub Releases API.
type githubSource struct {
	url   string
	fetch *fetcher
}

func (s *githubSource) Location() string { return s.url }

func (s *githubSource) Fetch(ctx context.Context) (*api.ReleaseManifest, error) {
	body, err := s.fetch.get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releases from GitHub: %w", err)
	}
	var releases []api.GitHubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub releases JSON from %s: %w", s.url, err)
	}
	return ManifestFromGitHub(releases), nil
}

// releasesSource reads a flat releases.json array.
type releasesSource struct {
	url   string
	fetch *fetcher
}

func (s *releasesSource) Location() string { return s.url }

func (s *releasesSource) Fetch(ctx context.Context) (*api.ReleaseManifest, error) {
	body, err := s.fetch.get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release list: %w", err)
	}
	var entries []api.ReleaseEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse release list from %s: %w", s.url, err)
	}
	return ManifestFromEntries(entries), nil
}

// staticSource reads a structured manifest.json whose artifacts must all
// carry a checksum.
type staticSource struct {
	url   string
	fetch *fetcher
}

func (s *staticSource) Location() string { return s.url }

func (s *staticSource) Fetch(ctx context.Context) (*api.ReleaseManifest, error) {
	body, err := s.fetch.get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	var m api.ReleaseManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest from %s: %w", s.url, err)
	}
	if m.SchemaVersion == 0 {
		return nil, fmt.Errorf("invalid manifest from %s: missing schema_version", s.url)
	}
	if err := requireChecksums(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest from %s: %w", s.url, err)
	}
	sortNewestFirst(m.Versions, func(v api.VersionInfo) string { return v.Version })
	if m.LatestStable == "" {
		m.LatestStable = newestStable(m.Versions)
	}
	return &m, nil
}

func requireChecksums(m *api.ReleaseManifest) error {
	for _, v := range m.Versions {
		for _, a := range v.Platforms {
			if a.SHA256 == "" {
				return fmt.Errorf("artifact %s of version %s has no sha256", a.Platform, v.Version)
			}
		}
	}
	for _, a := range m.InfsArtifacts {
		if a.SHA256 == "" {
			return fmt.Errorf("infs artifact %s has no sha256", a.Platform)
		}
	}
	return nil
}

// release is the source-independent view used to build a manifest.
type release struct {
	version    string
	date       string
	prerelease bool
	files      []releaseFile
}

type releaseFile struct {
	name   string
	url    string
	size   uint64
	sha256 string
}

// ManifestFromGitHub converts a GitHub release listing. Drafts are skipped,
// tags lose their "v" prefix and only recognised archives are kept.
func ManifestFromGitHub(releases []api.GitHubRelease) *api.ReleaseManifest {
	rs := make([]release, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		files := make([]releaseFile, len(r.Assets))
		for i, a := range r.Assets {
			files[i] = releaseFile{
				name:   a.Name,
				url:    a.BrowserDownloadURL,
				size:   a.Size,
				sha256: strings.TrimPrefix(a.Digest, "sha256:"),
			}
		}
		rs = append(rs, release{
			version:    trimTag(r.TagName),
			date:       dateOf(r.PublishedAt),
			prerelease: r.Prerelease,
			files:      files,
		})
	}
	return buildManifest(rs)
}

// ManifestFromEntries converts a flat releases.json array.
func ManifestFromEntries(entries []api.ReleaseEntry) *api.ReleaseManifest {
	rs := make([]release, len(entries))
	for i, e := range entries {
		files := make([]releaseFile, len(e.Files))
		for j, f := range e.Files {
			files[j] = releaseFile{name: f.Filename, url: f.URL, size: f.Size, sha256: f.SHA256}
		}
		rs[i] = release{
			version:    trimTag(e.Version),
			date:       dateOf(e.Date),
			prerelease: !e.Stable,
			files:      files,
		}
	}
	return buildManifest(rs)
}

func buildManifest(releases []release) *api.ReleaseManifest {
	sortNewestFirst(releases, func(r release) string { return r.version })

	m := &api.ReleaseManifest{SchemaVersion: 1, Versions: make([]api.VersionInfo, 0, len(releases))}
	for _, r := range releases {
		m.Versions = append(m.Versions, api.VersionInfo{
			Version:    r.version,
			Date:       r.date,
			Prerelease: r.prerelease,
			Platforms:  artifactsFor(r.files, ToolInfc),
		})
	}
	m.LatestStable = newestStable(m.Versions)

	for _, r := range releases {
		if r.prerelease {
			continue
		}
		m.InfsArtifacts = artifactsFor(r.files, ToolInfs)
		if len(m.InfsArtifacts) > 0 {
			m.LatestInfs = r.version
		}
		break
	}
	return m
}

// artifactsFor keeps the files of tool whose names encode a known platform.
// Unknown platforms are skipped, not rejected.
func artifactsFor(files []releaseFile, tool Tool) []api.PlatformArtifact {
	out := []api.PlatformArtifact{}
	for _, f := range files {
		t, p, ok := ParseArtifactName(f.name)
		if !ok || t != tool {
			continue
		}
		out = append(out, api.PlatformArtifact{
			Platform: string(p),
			URL:      f.url,
			SHA256:   f.sha256,
			Size:     f.size,
		})
	}
	return out
}

// newestStable returns the first non-prerelease of versions sorted newest
// first, or "" when every version is a prerelease.
func newestStable(versions []api.VersionInfo) string {
	for _, v := range versions {
		if !v.Prerelease {
			return v.Version
		}
	}
	return ""
}
