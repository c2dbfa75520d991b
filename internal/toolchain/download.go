package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"
)

const (
	// DownloadAttempts is the number of tries before a download fails.
	DownloadAttempts = 3
	// RetryBaseDelay is the first retry delay; it doubles every attempt.
	RetryBaseDelay = time.Second
	// retryJitter is the relative +/- spread applied to each delay.
	retryJitter = 0.25
	// progressStep is how many bytes pass between Progress events.
	progressStep = 256 * 1024
	// DownloadTimeout bounds each request when no client is supplied.
	DownloadTimeout = 5 * time.Minute
)

// ProgressKind enumerates download progress events.
type ProgressKind int

const (
	ProgressStarted ProgressKind = iota
	ProgressAdvanced
	ProgressCompleted
	ProgressFailed
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressStarted:
		return "started"
	case ProgressAdvanced:
		return "progress"
	case ProgressCompleted:
		return "completed"
	case ProgressFailed:
		return "failed"
	}
	return fmt.Sprintf("ProgressKind(%d)", int(k))
}

// ProgressEvent is reported to Downloader.OnProgress.
type ProgressEvent struct {
	Kind ProgressKind
	URL  string
	// Downloaded bytes so far; Total is 0 when unknown.
	Downloaded uint64
	Total      uint64
	Attempt    int
	Err        error
}

// Downloader fetches artifacts to disk with retries. The zero value is
// usable; nil fields take the NewDownloader defaults.
type Downloader struct {
	Client     *http.Client
	Logger     *slog.Logger
	OnProgress func(ProgressEvent)

	// sleep and jitter are replaced in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewDownloader returns a Downloader using client. A nil client gets a
// DownloadTimeout per request.
func NewDownloader(client *http.Client, logger *slog.Logger) *Downloader {
	d := &Downloader{Client: client, Logger: logger}
	d.setDefaults()
	return d
}

func (d *Downloader) setDefaults() {
	if d.Client == nil {
		d.Client = &http.Client{Timeout: DownloadTimeout}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if d.jitter == nil {
		d.jitter = rand.Float64
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryDelay returns the wait before the attempt after attempt (1-based).
func (d *Downloader) retryDelay(attempt int) time.Duration {
	base := RetryBaseDelay << (attempt - 1)
	spread := (d.jitter()*2 - 1) * retryJitter
	return time.Duration(float64(base) * (1 + spread))
}

// Download writes url to dest. The body streams to dest+".tmp", which is
// renamed into place only after a complete transfer. expectedSize is checked
// when non-zero.
func (d *Downloader) Download(ctx context.Context, url, dest string, expectedSize uint64) error {
	d.setDefaults()
	var lastErr error
	for attempt := 1; attempt <= DownloadAttempts; attempt++ {
		if attempt > 1 {
			delay := d.retryDelay(attempt - 1)
			d.Logger.Debug("Retrying download.", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)
			if err := d.sleep(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = d.attempt(ctx, url, dest, expectedSize, attempt)
		if lastErr == nil {
			return nil
		}
		d.emit(ProgressEvent{Kind: ProgressFailed, URL: url, Attempt: attempt, Err: lastErr})
		if err := ctx.Err(); err != nil {
			return err
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("download of %s failed after %d attempts: %w", url, DownloadAttempts, lastErr)
}

// retryable reports whether another attempt may succeed. Client errors other
// than rate limiting are final.
func retryable(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500
	}
	return true
}

func (d *Downloader) attempt(ctx context.Context, url, dest string, expectedSize uint64, attempt int) (err error) {
	tmp := dest + ".tmp"
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, url)
	}

	total := expectedSize
	if total == 0 && resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
	}
	d.emit(ProgressEvent{Kind: ProgressStarted, URL: url, Total: total, Attempt: attempt})

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	pw := &progressWriter{d: d, url: url, total: total, attempt: attempt}
	_, copyErr := io.Copy(io.MultiWriter(f, pw), resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to download %s: %w", url, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, closeErr)
	}
	if expectedSize > 0 && pw.written != expectedSize {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, got %d", url, expectedSize, pw.written)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}
	d.emit(ProgressEvent{Kind: ProgressCompleted, URL: url, Downloaded: pw.written, Total: total, Attempt: attempt})
	return nil
}

func (d *Downloader) emit(ev ProgressEvent) {
	if d.OnProgress != nil {
		d.OnProgress(ev)
	}
}

type progressWriter struct {
	d        *Downloader
	url      string
	total    uint64
	attempt  int
	written  uint64
	reported uint64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += uint64(len(p))
	if w.written-w.reported >= progressStep {
		w.reported = w.written
		w.d.emit(ProgressEvent{Kind: ProgressAdvanced, URL: w.url, Downloaded: w.written, Total: w.total, Attempt: w.attempt})
	}
	return len(p), nil
}
