package requirements

import "strings"

// Version is a leniently parsed version triple. Components after the first
// are optional; Pre holds whatever trailed the numeric part.
type Version struct {
	Major, Minor, Patch int
	HasMinor, HasPatch  bool
	Pre                 string
}

// ParseVersion extracts a version triple from a constraint's version text.
// It accepts an optional leading "v", up to three dot-separated numeric
// components, and keeps any remaining suffix as a pre-release tag. Returns
// false when not even a major component can be read.
func ParseVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	var v Version
	component := 0
	for component < 3 {
		digits := 0
		value := 0
		for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
			value = value*10 + int(s[digits]-'0')
			digits++
		}
		if digits == 0 {
			break
		}
		switch component {
		case 0:
			v.Major = value
		case 1:
			v.Minor, v.HasMinor = value, true
		case 2:
			v.Patch, v.HasPatch = value, true
		}
		component++
		s = s[digits:]
		if !strings.HasPrefix(s, ".") {
			break
		}
		s = s[1:]
	}
	if component == 0 {
		return Version{}, false
	}
	v.Pre = strings.TrimLeft(s, ".-_")
	return v, true
}

// Compare orders two versions by their shared components. A component
// absent on either side is skipped rather than treated as zero, so
// "2.26" and "2.26.1" compare equal. Pre-release tags do not participate.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.HasMinor && b.HasMinor && a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	if a.HasPatch && b.HasPatch && a.Patch != b.Patch {
		return sign(a.Patch - b.Patch)
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
