package toolchain

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/inferara/infs/internal/config"
)

const githubReleasesJSON = `[
  {
    "tag_name": "v0.2.1-alpha",
    "published_at": "2024-07-01T10:00:00Z",
    "prerelease": true,
    "draft": false,
    "assets": [
      {"name": "infc-linux-x64.tar.gz", "browser_download_url": "https://dl.example/0.2.1-alpha/infc-linux-x64.tar.gz", "size": 10}
    ]
  },
  {
    "tag_name": "v0.3.0",
    "published_at": "2024-08-01T10:00:00Z",
    "prerelease": false,
    "draft": true,
    "assets": []
  },
  {
    "tag_name": "v0.1.0",
    "published_at": "2024-05-01T10:00:00Z",
    "prerelease": false,
    "draft": false,
    "assets": [
      {"name": "infc-linux-x64.tar.gz", "browser_download_url": "https://dl.example/0.1.0/infc-linux-x64.tar.gz", "size": 8}
    ]
  },
  {
    "tag_name": "v0.2.0",
    "published_at": "2024-06-01T10:00:00Z",
    "prerelease": false,
    "draft": false,
    "assets": [
      {"name": "infc-linux-x64.tar.gz", "browser_download_url": "https://dl.example/0.2.0/infc-linux-x64.tar.gz", "size": 12, "digest": "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
      {"name": "infc-linux-x64.tar.gz.sha256", "browser_download_url": "https://dl.example/0.2.0/infc-linux-x64.tar.gz.sha256", "size": 64},
      {"name": "infc-macos-apple-silicon.tar.gz", "browser_download_url": "https://dl.example/0.2.0/infc-macos-apple-silicon.tar.gz", "size": 13},
      {"name": "infc-windows-x64.zip", "browser_download_url": "https://dl.example/0.2.0/infc-windows-x64.zip", "size": 14},
      {"name": "infs-linux-x64.tar.gz", "browser_download_url": "https://dl.example/0.2.0/infs-linux-x64.tar.gz", "size": 5}
    ]
  }
]`

// manifestServer serves body at every path and counts requests.
type manifestServer struct {
	*httptest.Server
	hits    atomic.Int32
	status  atomic.Int32
	lastReq atomic.Pointer[http.Request]
}

func newManifestServer(t *testing.T, body string) *manifestServer {
	t.Helper()
	s := &manifestServer{}
	s.status.Store(http.StatusOK)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.lastReq.Store(r.Clone(r.Context()))
		w.WriteHeader(int(s.status.Load()))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func testConfig(source config.SourceKind, url string) *config.Config {
	return &config.Config{
		Home:        "/unused",
		Source:      source,
		ManifestURL: url,
		CacheTTL:    config.DefaultCacheTTL,
		APIBase:     url,
		Repo:        config.DefaultRepo,
		Timeout:     5 * time.Second,
	}
}

// fixedClock returns a clock that can be moved by the test.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func newTestResolver(t *testing.T, cfg *config.Config, opts ...Option) *Resolver {
	t.Helper()
	opts = append([]Option{WithFilesystem(memfs.New())}, opts...)
	r, err := NewResolver(cfg, opts...)
	require.NoError(t, err)
	return r
}
