package requirements

import "strings"

// Change pairs the before and after constraints of one package.
type Change struct {
	Old Constraint `json:"old"`
	New Constraint `json:"new"`
}

// Delta describes the difference between two manifests. The three maps
// have pairwise disjoint key sets; every Changed entry has Old != New.
// Added and Changed keys use the target-side spelling, Removed keys the
// base-side spelling.
type Delta struct {
	Added   map[string]Constraint
	Removed map[string]Constraint
	Changed map[string]Change
}

// Diff computes the Delta from before to after. Packages are matched
// case-insensitively, consistent with the parser's deduplication rule.
func Diff(before, after Manifest) Delta {
	delta := Delta{
		Added:   map[string]Constraint{},
		Removed: map[string]Constraint{},
		Changed: map[string]Change{},
	}
	beforeKeys := map[string]string{}
	for name := range before {
		beforeKeys[strings.ToLower(name)] = name
	}
	matched := map[string]bool{}
	for name, newC := range after {
		lower := strings.ToLower(name)
		oldKey, known := beforeKeys[lower]
		if !known {
			delta.Added[name] = newC
			continue
		}
		matched[lower] = true
		if oldC := before[oldKey]; oldC != newC {
			delta.Changed[name] = Change{Old: oldC, New: newC}
		}
	}
	for name, oldC := range before {
		if !matched[strings.ToLower(name)] {
			delta.Removed[name] = oldC
		}
	}
	return delta
}

// Empty reports whether the delta carries no entries at all.
func (d Delta) Empty() bool {
	return d.Total() == 0
}

// Total counts every package the delta touches.
func (d Delta) Total() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}
