package jsondelta

import "sort"

// unchangedIndex records, for every maximal subtree that is the same in
// the source and the target at the same location, its pointer and value.
// Entries keep walk order so that lookups are deterministic.
type unchangedIndex struct {
	paths  []Pointer
	values map[Pointer]any
}

func computeUnchanged(source, target any, o *options) *unchangedIndex {
	idx := &unchangedIndex{values: make(map[Pointer]any)}
	idx.collect(RootPointer, source, target, o)
	return idx
}

func (u *unchangedIndex) collect(ptr Pointer, first, second any, o *options) {
	if o.equivalent(first, second) {
		u.paths = append(u.paths, ptr)
		u.values[ptr] = first
		return
	}
	if KindOf(first) != KindOf(second) {
		return
	}
	switch a := first.(type) {
	case map[string]any:
		b := second.(map[string]any)
		for _, key := range sortedKeys(a) {
			if bv, ok := b[key]; ok {
				u.collect(ptr.Append(key), a[key], bv, o)
			}
		}
	case []any:
		// positions inside an identity-keyed array do not survive the
		// reconciliation, so nothing below it can serve as a copy source
		b := second.([]any)
		if _, keyed := o.keySetFor(ptr, a, b); keyed {
			return
		}
		for i := 0; i < min(len(a), len(b)); i++ {
			u.collect(ptr.AppendIndex(i), a[i], b[i], o)
		}
	}
}

// find returns the first recorded pointer whose value is equivalent to v.
func (u *unchangedIndex) find(v any, eq Equivalence) (Pointer, bool) {
	for _, p := range u.paths {
		if eq(u.values[p], v) {
			return p, true
		}
	}
	return "", false
}

// Unchanged returns every maximal subtree that is identical in source and
// target at the same location, keyed by its pointer. Sub-paths of an
// unchanged subtree are not listed.
func Unchanged(source, target any, opts ...Option) map[Pointer]any {
	return computeUnchanged(source, target, newOptions(opts)).values
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
