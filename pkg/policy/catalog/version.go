package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// versionPattern matches version directory names: a "v" prefix followed
// by one or two dot-separated integer segments (v1, v2, v1.2).
var versionPattern = regexp.MustCompile(`^v(\d+)(?:\.(\d+))?$`)

// isVersionDir reports whether name is a well-formed version directory.
func isVersionDir(name string) bool {
	return versionPattern.MatchString(name)
}

// parseVersion splits a version directory name into numeric segments.
// Returns false when the name does not match the version grammar.
func parseVersion(name string) ([]int, bool) {
	if !versionPattern.MatchString(name) {
		return nil, false
	}
	parts := strings.Split(strings.TrimPrefix(name, "v"), ".")
	segs := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		segs[i] = n
	}
	return segs, true
}

// compareVersions orders two version directory names numerically by
// segment, with missing segments treated as zero (so v2 > v1.9 and
// v1.2 > v1). Returns -1, 0 or 1. Inputs must satisfy isVersionDir.
func compareVersions(a, b string) int {
	as, _ := parseVersion(a)
	bs, _ := parseVersion(b)

	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

// maxVersion returns the numerically highest version from a non-empty
// list of version directory names.
func maxVersion(versions []string) string {
	best := versions[0]
	for _, v := range versions[1:] {
		if compareVersions(v, best) > 0 {
			best = v
		}
	}
	return best
}
