package registry

import (
	"regexp"
	"strconv"
	"strings"
)

// SemverPattern matches MAJOR.MINOR.PATCH version strings.
var SemverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// CompareVersions compares two MAJOR.MINOR.PATCH strings segment by
// segment, numerically: "1.10.0" is newer than "1.2.0". Returns a
// negative number if a is older than b, zero if equal, positive if newer.
// Malformed segments compare as 0.
func CompareVersions(a, b string) int {
	as := strings.SplitN(a, ".", 3)
	bs := strings.SplitN(b, ".", 3)

	for i := 0; i < 3; i++ {
		av, bv := segment(as, i), segment(bs, i)
		if av != bv {
			return av - bv
		}
	}
	return 0
}

func segment(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}
