package toolchain

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferara/infs/api"
	"github.com/inferara/infs/internal/config"
)

func TestResolver_FetchManifestUsesCache(t *testing.T) {
	srv := newManifestServer(t, githubReleasesJSON)
	now, advance := fixedClock(time.Unix(1_700_000_000, 0))
	r := newTestResolver(t, testConfig(config.SourceGitHub, srv.URL), WithHTTPClient(srv.Client()), WithClock(now))
	ctx := context.Background()

	m, err := r.FetchManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", m.LatestStable)
	assert.Equal(t, int32(1), srv.hits.Load())

	_, err = r.FetchManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load(), "fresh cache must not hit the network")

	advance(config.DefaultCacheTTL)
	_, err = r.FetchManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestResolver_Refresh(t *testing.T) {
	srv := newManifestServer(t, githubReleasesJSON)
	r := newTestResolver(t, testConfig(config.SourceGitHub, srv.URL), WithHTTPClient(srv.Client()))

	_, err := r.FetchManifest(context.Background())
	require.NoError(t, err)
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestResolver_FetchErrorNotCached(t *testing.T) {
	srv := newManifestServer(t, "")
	srv.status.Store(http.StatusInternalServerError)
	r := newTestResolver(t, testConfig(config.SourceGitHub, srv.URL), WithHTTPClient(srv.Client()))

	_, err := r.FetchManifest(context.Background())
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	_, ok := r.Cache().Load()
	assert.False(t, ok)
}

func TestResolver_FetchArtifact(t *testing.T) {
	srv := newManifestServer(t, githubReleasesJSON)
	r := newTestResolver(t, testConfig(config.SourceGitHub, srv.URL), WithHTTPClient(srv.Client()))
	ctx := context.Background()

	for _, v := range []string{"", "latest"} {
		version, a, err := r.FetchArtifact(ctx, v, LinuxX64)
		require.NoError(t, err)
		assert.Equal(t, "0.2.0", version)
		assert.Equal(t, "https://dl.example/0.2.0/infc-linux-x64.tar.gz", a.URL)
	}

	version, a, err := r.FetchArtifact(ctx, "0.2.1-alpha", LinuxX64)
	require.NoError(t, err)
	assert.Equal(t, "0.2.1-alpha", version)
	assert.Equal(t, uint64(10), a.Size)

	_, _, err = r.FetchArtifact(ctx, "9.9.9", LinuxX64)
	var vnf *VersionNotFoundError
	require.True(t, errors.As(err, &vnf))
	assert.Equal(t, "9.9.9", vnf.Version)

	_, _, err = r.FetchArtifact(ctx, "0.1.0", WindowsX64)
	var anf *ArtifactNotFoundError
	require.True(t, errors.As(err, &anf))
	assert.Equal(t, ToolInfc, anf.Tool)
	assert.Equal(t, WindowsX64, anf.Platform)
	assert.Equal(t, "no infc artifact found for platform windows-x64 in version 0.1.0", err.Error())
}

func TestResolver_FetchInfsArtifact(t *testing.T) {
	srv := newManifestServer(t, githubReleasesJSON)
	r := newTestResolver(t, testConfig(config.SourceGitHub, srv.URL), WithHTTPClient(srv.Client()))

	version, a, err := r.FetchInfsArtifact(context.Background(), LinuxX64)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", version)
	assert.Equal(t, "https://dl.example/0.2.0/infs-linux-x64.tar.gz", a.URL)

	_, _, err = r.FetchInfsArtifact(context.Background(), MacOSArm64)
	var anf *ArtifactNotFoundError
	require.True(t, errors.As(err, &anf))
	assert.Equal(t, ToolInfs, anf.Tool)
}

func TestSelectArtifact_NoStable(t *testing.T) {
	m := &api.ReleaseManifest{SchemaVersion: 1, Versions: []api.VersionInfo{{Version: "0.1.0-rc1", Prerelease: true}}}
	_, _, err := SelectArtifact(m, "latest", LinuxX64)
	var vnf *VersionNotFoundError
	require.True(t, errors.As(err, &vnf))
}

func TestSelectArtifact_ComputesMissingLatest(t *testing.T) {
	m := &api.ReleaseManifest{SchemaVersion: 1, Versions: []api.VersionInfo{
		{Version: "0.2.0", Platforms: []api.PlatformArtifact{{Platform: "linux-x64", URL: "u"}}},
	}}
	version, _, err := SelectArtifact(m, "", LinuxX64)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", version)
}

func TestNewResolver_InvalidConfig(t *testing.T) {
	cfg := testConfig(config.SourceGitHub, "http://x")
	cfg.Home = ""
	_, err := NewResolver(cfg)
	assert.Error(t, err)
}

func TestResolver_StaticManifestServedFromCache(t *testing.T) {
	body := `{"schema_version":1,"latest_stable":"0.1.0","versions":[{"version":"0.1.0","date":"","platforms":[{"platform":"linux-x64","url":"u","sha256":"s","size":1}]}]}`
	srv := newManifestServer(t, body)
	r := newTestResolver(t, testConfig(config.SourceStatic, srv.URL), WithHTTPClient(srv.Client()))

	for range 3 {
		version, _, err := r.FetchArtifact(context.Background(), "", LinuxX64)
		require.NoError(t, err)
		assert.Equal(t, "0.1.0", version)
	}
	assert.Equal(t, int32(1), srv.hits.Load())
}

// staticManifest is a Source returning a fixed manifest.
type staticManifest struct{ m *api.ReleaseManifest }

func (s staticManifest) Fetch(context.Context) (*api.ReleaseManifest, error) { return s.m, nil }
func (s staticManifest) Location() string { return "memory" }

func TestResolver_FetchInfsArtifactWithoutLatestInfs(t *testing.T) {
	m := &api.ReleaseManifest{
		SchemaVersion: 1,
		LatestStable:  "0.3.0",
		Versions:      []api.VersionInfo{{Version: "0.3.0"}},
		InfsArtifacts: []api.PlatformArtifact{{Platform: "linux-x64", URL: "u", SHA256: "s"}},
	}
	r := newTestResolver(t, testConfig(config.SourceStatic, "http://unused"), WithSource(staticManifest{m}))

	version, a, err := r.FetchInfsArtifact(context.Background(), LinuxX64)
	require.NoError(t, err)
	assert.Equal(t, "0.3.0", version)
	assert.Equal(t, "u", a.URL)
}
