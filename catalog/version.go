package catalog

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalSemver returns the semver form of a version string ("1.2" -> "v1.2")
// and whether it is a valid semantic version. Shorthand versions such as "v1"
// and "v2.0" are accepted and compare as "v1.0.0" and "v2.0.0".
func canonicalSemver(version string) (string, bool) {
	if version == "" {
		return "", false
	}
	if version[0] != 'v' {
		version = "v" + version
	}
	return version, semver.IsValid(version)
}

// IsSemantic reports whether version parses as a semantic version.
func IsSemantic(version string) bool {
	_, ok := canonicalSemver(version)
	return ok
}

// CompareVersions orders two version strings from most to least recent.
// It returns a negative number when a is more recent than b, a positive number
// when b is more recent, and zero when they are the same string.
//
// Semantic versions compare by semver precedence. A non-semantic version is
// considered more recent than any semantic version. Two non-semantic versions
// compare by their raw strings in descending lexical order.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	semA, okA := canonicalSemver(a)
	semB, okB := canonicalSemver(b)
	switch {
	case okA && okB:
		if cmp := semver.Compare(semB, semA); cmp != 0 {
			return cmp
		}
		// equal precedence (v1.0 vs v1.0.0, build metadata); keep the order stable
		return strings.Compare(b, a)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(b, a)
	}
}

// versionRank partitions component versions before the comparator applies.
// Flagged prereleases come first (a versionless one at their head), then an
// unflagged versionless entry, then everything else.
func versionRank(cv *ComponentVersion) int {
	switch {
	case cv.Prerelease.IsSet() && cv.Version == "":
		return 0
	case cv.Prerelease.IsSet():
		return 1
	case cv.Version == "":
		return 2
	default:
		return 3
	}
}

// compareComponentVersions orders component versions from most to least recent.
func compareComponentVersions(a, b *ComponentVersion) int {
	if rank := versionRank(a) - versionRank(b); rank != 0 {
		return rank
	}
	return CompareVersions(a.Version, b.Version)
}

// SortVersions sorts component versions in place, most recent first.
func SortVersions(versions []*ComponentVersion) {
	slices.SortStableFunc(versions, compareComponentVersions)
}
