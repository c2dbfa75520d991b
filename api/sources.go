package api

// GitHubRelease is one entry of the GitHub Releases API listing.
type GitHubRelease struct {
	TagName     string        `json:"tag_name"`
	PublishedAt string        `json:"published_at"`
	Prerelease  bool          `json:"prerelease"`
	Draft       bool          `json:"draft"`
	Assets      []GitHubAsset `json:"assets"`
}

// GitHubAsset is a file attached to a GitHub release.
type GitHubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               uint64 `json:"size"`
	// Digest is "sha256:<hex>" on recent API versions, empty otherwise.
	Digest string `json:"digest,omitempty"`
}

// ReleaseEntry is one element of a flat releases.json array.
type ReleaseEntry struct {
	Version string      `json:"version"`
	Date    string      `json:"date,omitempty"`
	Stable  bool        `json:"stable"`
	Files   []FileEntry `json:"files"`
}

// FileEntry is a downloadable file of a flat release entry. The platform
// and tool are encoded in Filename, e.g. "infc-linux-x64.tar.gz".
type FileEntry struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     uint64 `json:"size"`
	SHA256   string `json:"sha256,omitempty"`
}
