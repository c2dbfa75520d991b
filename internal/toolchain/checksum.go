package toolchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inferara/infs/api"
)

// ChecksumSuffix is appended to an artifact URL to find its published
// checksum file.
const ChecksumSuffix = ".sha256"

// FetchChecksum returns the artifact's SHA-256. A checksum carried by the
// manifest is used as is; otherwise the sibling ".sha256" file is fetched.
func (r *Resolver) FetchChecksum(ctx context.Context, artifact api.PlatformArtifact) (string, error) {
	if artifact.SHA256 != "" {
		return strings.ToLower(artifact.SHA256), nil
	}
	url := artifact.URL + ChecksumSuffix
	body, err := r.fetch.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch checksum: %w", err)
	}
	sum, err := parseChecksumFile(string(body))
	if err != nil {
		return "", fmt.Errorf("invalid checksum file %s: %w", url, err)
	}
	return sum, nil
}

// parseChecksumFile accepts both a bare digest and "sha256sum" output
// ("<digest>  <filename>").
func parseChecksumFile(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file")
	}
	sum := strings.ToLower(fields[0])
	if !isSHA256Hex(sum) {
		return "", fmt.Errorf("%q is not a SHA-256 hex digest", fields[0])
	}
	return sum, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// FileSHA256 hashes the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum compares the file at path against the expected digest.
func VerifyChecksum(path, expected string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	expected = strings.ToLower(strings.TrimSpace(expected))
	if actual != expected {
		return &ChecksumMismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}
