// Package requirements parses Python dependency manifests (requirements.txt
// dialect) and classifies the compatibility impact of changes between two
// versions of a manifest.
package requirements

import (
	"sort"
	"strings"
)

// Op is a version constraint operator as written in a manifest.
type Op string

// Recognized operators, in match priority order. OpAny is the fallback for
// bare names and anything the stricter forms do not match.
const (
	OpAny         Op = ""
	OpExact       Op = "=="
	OpAtLeast     Op = ">="
	OpAtMost      Op = "<="
	OpCompatible  Op = "~="
	OpGreaterThan Op = ">"
	OpLessThan    Op = "<"
)

// splitOps is the operator probe order. Two-character operators go first so
// that ">=1.0" is not torn apart at ">".
var splitOps = []Op{OpExact, OpAtLeast, OpAtMost, OpCompatible, OpGreaterThan, OpLessThan}

// Constraint is one parsed version requirement. The zero value means "any
// version".
type Constraint struct {
	Op      Op
	Version string
}

// AnyVersion is the constraint a bare package name carries.
var AnyVersion = Constraint{}

// IsAny reports whether the constraint accepts any version.
func (c Constraint) IsAny() bool {
	return c.Op == OpAny
}

// IsExact reports whether the constraint pins one exact version.
func (c Constraint) IsExact() bool {
	return c.Op == OpExact
}

// String renders the constraint the way it appears in a manifest, with the
// empty string standing for "any".
func (c Constraint) String() string {
	if c.IsAny() {
		return ""
	}
	return string(c.Op) + c.Version
}

// Manifest maps package names, as last written in the file, to their
// constraints.
type Manifest map[string]Constraint

// Parse converts manifest text to a Manifest. It is total: blank lines,
// comments and garbage contribute no entries, and nothing makes it fail.
// Duplicate names resolve last-wins, matched case-insensitively, and the
// surviving entry keeps the later spelling. A name[extra,...] form keeps
// the bracketed text in the key verbatim.
func Parse(text string) Manifest {
	manifest := Manifest{}
	spelling := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		name, constraint, ok := parseLine(line)
		if !ok {
			continue
		}
		lower := strings.ToLower(name)
		if prev, seen := spelling[lower]; seen && prev != name {
			delete(manifest, prev)
		}
		spelling[lower] = name
		manifest[name] = constraint
	}
	return manifest
}

func parseLine(line string) (string, Constraint, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "-") {
		return "", Constraint{}, false
	}
	for _, op := range splitOps {
		name, version, found := strings.Cut(line, string(op))
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		version = strings.TrimSpace(version)
		if !validName(name) {
			return "", Constraint{}, false
		}
		return name, Constraint{Op: op, Version: version}, true
	}
	if !validName(line) {
		return "", Constraint{}, false
	}
	return line, AnyVersion, true
}

// validName refuses names with embedded whitespace, which usually indicate
// pip option lines or free-form text rather than a requirement.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t")
}

// Render writes the manifest back out, one requirement per line in sorted
// name order. Parse(Render(m)) reproduces m exactly.
func Render(manifest Manifest) string {
	names := make([]string, 0, len(manifest))
	for name := range manifest {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(manifest[name].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BaseName lowercases a package key and drops any [extras] suffix. It is
// the form the fixed-list checks in this package match against.
func BaseName(name string) string {
	name = strings.ToLower(name)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
