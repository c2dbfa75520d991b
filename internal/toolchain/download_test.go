package toolchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyServer fails the first `failures` requests with status.
func flakyServer(t *testing.T, failures int32, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= failures {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testDownloader(client *http.Client, jitter float64) (*Downloader, *[]time.Duration) {
	var delays []time.Duration
	d := NewDownloader(client, nil)
	d.sleep = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}
	d.jitter = func() float64 { return jitter }
	return d, &delays
}

func TestDownload_Success(t *testing.T) {
	srv, _ := flakyServer(t, 0, 0, "hello\n")
	d, delays := testDownloader(srv.Client(), 0.5)
	var events []ProgressKind
	d.OnProgress = func(ev ProgressEvent) { events = append(events, ev.Kind) }

	dest := filepath.Join(t.TempDir(), "infc.tar.gz")
	require.NoError(t, d.Download(context.Background(), srv.URL, dest, 6))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Empty(t, *delays)
	assert.Equal(t, []ProgressKind{ProgressStarted, ProgressCompleted}, events)
	assert.NoFileExists(t, dest+".tmp")
}

func TestDownload_RetriesWithBackoff(t *testing.T) {
	srv, hits := flakyServer(t, 2, http.StatusBadGateway, "ok")
	d, delays := testDownloader(srv.Client(), 0.5)

	dest := filepath.Join(t.TempDir(), "a")
	require.NoError(t, d.Download(context.Background(), srv.URL, dest, 0))
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestDownload_JitterBounds(t *testing.T) {
	d, _ := testDownloader(nil, 0)
	assert.Equal(t, 750*time.Millisecond, d.retryDelay(1))
	d.jitter = func() float64 { return 1 }
	assert.Equal(t, 2500*time.Millisecond, d.retryDelay(2))
}

func TestDownload_GivesUp(t *testing.T) {
	srv, hits := flakyServer(t, 10, http.StatusServiceUnavailable, "")
	d, delays := testDownloader(srv.Client(), 0.5)
	var failed int
	d.OnProgress = func(ev ProgressEvent) {
		if ev.Kind == ProgressFailed {
			failed++
		}
	}

	dest := filepath.Join(t.TempDir(), "a")
	err := d.Download(context.Background(), srv.URL, dest, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	var he *HTTPError
	assert.True(t, errors.As(err, &he))
	assert.Equal(t, int32(DownloadAttempts), hits.Load())
	assert.Len(t, *delays, DownloadAttempts-1)
	assert.Equal(t, DownloadAttempts, failed)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".tmp")
}

func TestDownload_NotFoundIsFinal(t *testing.T) {
	srv, hits := flakyServer(t, 10, http.StatusNotFound, "")
	d, _ := testDownloader(srv.Client(), 0.5)

	err := d.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "a"), 0)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownload_SizeMismatch(t *testing.T) {
	srv, hits := flakyServer(t, 0, 0, "short")
	d, _ := testDownloader(srv.Client(), 0.5)

	dest := filepath.Join(t.TempDir(), "a")
	err := d.Download(context.Background(), srv.URL, dest, 100)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "size mismatch"))
	assert.Equal(t, int32(DownloadAttempts), hits.Load())
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".tmp")
}

func TestDownload_ContextCancelled(t *testing.T) {
	srv, _ := flakyServer(t, 10, http.StatusBadGateway, "")
	d := NewDownloader(srv.Client(), nil)
	d.jitter = func() float64 { return 0.5 }

	ctx, cancel := context.WithCancel(context.Background())
	d.OnProgress = func(ev ProgressEvent) {
		if ev.Kind == ProgressFailed {
			cancel()
		}
	}
	err := d.Download(ctx, srv.URL, filepath.Join(t.TempDir(), "a"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDownloader_DefaultClientHasTimeout(t *testing.T) {
	d := NewDownloader(nil, nil)
	assert.Equal(t, DownloadTimeout, d.Client.Timeout)
	assert.NotNil(t, d.Logger)
}

func TestDownload_ZeroValueRetries(t *testing.T) {
	srv, hits := flakyServer(t, 1, http.StatusBadGateway, "ok")
	d := &Downloader{Client: srv.Client()}

	dest := filepath.Join(t.TempDir(), "a")
	require.NoError(t, d.Download(context.Background(), srv.URL, dest, 0))
	assert.Equal(t, int32(2), hits.Load())
}
