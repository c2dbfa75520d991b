package api

// ReleaseManifest is the version/artifact catalog consulted to resolve an
// install request. Every manifest source is normalised to this shape, and
// it is what the on-disk cache stores.
type ReleaseManifest struct {
	// SchemaVersion of the manifest format. Always 1 for manifests built here.
	SchemaVersion uint32 `json:"schema_version"`
	// LatestStable is the newest non-prerelease version.
	LatestStable string `json:"latest_stable"`
	// LatestInfs is the version the InfsArtifacts belong to, if any.
	LatestInfs string `json:"latest_infs,omitempty"`
	// Versions, newest first.
	Versions []VersionInfo `json:"versions"`
	// InfsArtifacts are the toolchain manager's own downloads.
	InfsArtifacts []PlatformArtifact `json:"infs_artifacts,omitempty"`
}

// VersionInfo describes one released toolchain version.
type VersionInfo struct {
	Version    string             `json:"version"`
	Date       string             `json:"date"`
	Prerelease bool               `json:"prerelease,omitempty"`
	Platforms  []PlatformArtifact `json:"platforms"`
}

// PlatformArtifact is one downloadable, platform-specific file.
type PlatformArtifact struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	// SHA256 is the hex checksum. Empty when the source does not publish one.
	SHA256 string `json:"sha256,omitempty"`
	Size   uint64 `json:"size"`
}

// CachedManifest is the on-disk cache entry.
type CachedManifest struct {
	Manifest ReleaseManifest `json:"manifest"`
	// Timestamp is the Unix time, in seconds, the manifest was fetched.
	Timestamp uint64 `json:"timestamp"`
}

// FindVersion returns the entry whose version matches exactly.
func (m *ReleaseManifest) FindVersion(version string) (*VersionInfo, bool) {
	for i := range m.Versions {
		if m.Versions[i].Version == version {
			return &m.Versions[i], true
		}
	}
	return nil, false
}

// AvailableVersions lists every version in manifest order.
func (m *ReleaseManifest) AvailableVersions() []string {
	out := make([]string, len(m.Versions))
	for i, v := range m.Versions {
		out[i] = v.Version
	}
	return out
}

// FindInfsArtifact returns the toolchain manager artifact for platform.
func (m *ReleaseManifest) FindInfsArtifact(platform string) (*PlatformArtifact, bool) {
	return findArtifact(m.InfsArtifacts, platform)
}

// FindArtifact returns the artifact built for platform.
func (v *VersionInfo) FindArtifact(platform string) (*PlatformArtifact, bool) {
	return findArtifact(v.Platforms, platform)
}

func findArtifact(artifacts []PlatformArtifact, platform string) (*PlatformArtifact, bool) {
	for i := range artifacts {
		if artifacts[i].Platform == platform {
			return &artifacts[i], true
		}
	}
	return nil, false
}
