package toolchain

import (
	"fmt"

	"github.com/inferara/infs/internal/config"
)

// rateLimitDocs is linked from the rate limit guidance.
const rateLimitDocs = "https://docs.github.com/en/rest/overview/resources-in-the-rest-api#rate-limiting"

// HTTPError is a non-success response without a more specific class.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.URL)
}

// RateLimitError is returned for 403 and 429 responses.
type RateLimitError struct {
	StatusCode int
	URL        string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (HTTP %d from %s). Set the %s environment variable to increase limits. See: %s",
		e.StatusCode, e.URL, config.TokenEnv, rateLimitDocs)
}

// NotFoundError is returned for 404 responses.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return "resource not found: " + e.URL
}

// VersionNotFoundError reports a requested version missing from the manifest.
type VersionNotFoundError struct {
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found in manifest", e.Version)
}

// ArtifactNotFoundError reports a version without an artifact for the
// requested platform.
type ArtifactNotFoundError struct {
	Tool     Tool
	Platform Platform
	Version  string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("no %s artifact found for platform %s in version %s", e.Tool, e.Platform, e.Version)
}

// ChecksumMismatchError reports a downloaded file whose SHA-256 differs from
// the published one.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// statusError maps a non-success HTTP status to its error class.
func statusError(code int, url string) error {
	switch code {
	case 403, 429:
		return &RateLimitError{StatusCode: code, URL: url}
	case 404:
		return &NotFoundError{URL: url}
	}
	return &HTTPError{StatusCode: code, URL: url}
}
