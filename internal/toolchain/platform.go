package toolchain

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies a supported os/arch pair.
type Platform string

const (
	LinuxX64   Platform = "linux-x64"
	WindowsX64 Platform = "windows-x64"
	MacOSArm64 Platform = "macos-arm64"
)

// Platforms lists every supported platform.
func Platforms() []Platform {
	return []Platform{LinuxX64, WindowsX64, MacOSArm64}
}

func (p Platform) String() string { return string(p) }

// ParsePlatform maps a platform identifier onto the closed table. The legacy
// "macos-apple-silicon" name normalises to macos-arm64.
func ParsePlatform(s string) (Platform, bool) {
	switch s {
	case "linux-x64":
		return LinuxX64, true
	case "windows-x64":
		return WindowsX64, true
	case "macos-arm64", "macos-apple-silicon":
		return MacOSArm64, true
	}
	return "", false
}

// DetectPlatform returns the platform of the running host.
func DetectPlatform() (Platform, error) {
	return detectPlatform(runtime.GOOS, runtime.GOARCH)
}

func detectPlatform(goos, goarch string) (Platform, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return LinuxX64, nil
	case goos == "windows" && goarch == "amd64":
		return WindowsX64, nil
	case goos == "darwin" && goarch == "arm64":
		return MacOSArm64, nil
	}
	return "", fmt.Errorf("unsupported platform %s/%s: supported platforms are linux-x64, windows-x64, macos-arm64", goos, goarch)
}

// Tool names a binary published with each release.
type Tool string

const (
	// ToolInfc is the compiler toolchain.
	ToolInfc Tool = "infc"
	// ToolInfs is the toolchain manager itself.
	ToolInfs Tool = "infs"
)

// ParseArtifactName classifies a release file name such as
// "infc-linux-x64.tar.gz". Only .tar.gz and .zip archives of a known tool
// for a known platform match; checksum files and anything else do not.
func ParseArtifactName(filename string) (Tool, Platform, bool) {
	stem, ok := stripArchiveExt(filename)
	if !ok {
		return "", "", false
	}
	for _, tool := range []Tool{ToolInfc, ToolInfs} {
		if rest, found := strings.CutPrefix(stem, string(tool)+"-"); found {
			p, ok := ParsePlatform(rest)
			return tool, p, ok
		}
	}
	return "", "", false
}

func stripArchiveExt(filename string) (string, bool) {
	if s, ok := strings.CutSuffix(filename, ".tar.gz"); ok {
		return s, true
	}
	if len(filename) > 4 && strings.EqualFold(filename[len(filename)-4:], ".zip") {
		return filename[:len(filename)-4], true
	}
	return filename, false
}
