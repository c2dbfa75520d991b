package writeback

import (
	"path/filepath"
	"strings"

	"github.com/inferara/infs/internal/watfmt"
	"mvdan.cc/gofumpt/format"
)

// IsWAT reports whether filePath names a WebAssembly text source.
func IsWAT(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wat", ".wast":
		return true
	}
	return false
}

// Supported reports whether FormatBuffer knows how to format filePath.
func Supported(filePath string) bool {
	return IsWAT(filePath) || strings.HasSuffix(filePath, ".go")
}

// FormatBuffer formats source code in-memory, choosing the formatter by
// file extension: watfmt for .wat/.wast, gofumpt for Go host bindings.
// Returns the original buffer unchanged for other files or when Go
// formatting fails.
func FormatBuffer(content []byte, filePath string) []byte {
	switch {
	case IsWAT(filePath):
		out := watfmt.Format(string(content))
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		return []byte(out)
	case strings.HasSuffix(filePath, ".go"):
		formatted, err := format.Source(content, format.Options{})
		if err != nil {
			return content // keep the original on failure
		}
		return formatted
	default:
		return content
	}
}
