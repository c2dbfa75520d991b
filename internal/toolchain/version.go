package toolchain

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// LatestAlias selects the newest stable version.
const LatestAlias = "latest"

func canonical(version string) (string, bool) {
	v := "v" + strings.TrimPrefix(version, "v")
	return v, semver.IsValid(v)
}

// CompareVersions orders two version strings: semantic versions by
// precedence, and any semantic version above one that does not parse.
// Versions that both fail to parse compare lexicographically.
func CompareVersions(a, b string) int {
	ca, okA := canonical(a)
	cb, okB := canonical(b)
	switch {
	case okA && okB:
		if c := semver.Compare(ca, cb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

// sortNewestFirst orders versions by descending CompareVersions.
func sortNewestFirst[T any](items []T, version func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return CompareVersions(version(items[i]), version(items[j])) > 0
	})
}

// trimTag strips the leading "v" of a release tag.
func trimTag(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// dateOf truncates an RFC 3339 timestamp to its date.
func dateOf(timestamp string) string {
	date, _, _ := strings.Cut(timestamp, "T")
	return date
}
