package jsondelta

type entryKind uint8

const (
	entryAdd entryKind = iota
	entryRemove
	entryReplace
	entryMove
	entryCopy
)

// ledgerEntry is one pending edit of a diff in progress.
type ledgerEntry struct {
	kind     entryKind
	from     Pointer
	path     Pointer
	oldValue any
	value    any
	// locator is set on identity-keyed entries; they are never folded
	// into moves or copies
	locator map[string]any
}

// processor accumulates the edits found while walking two trees and folds
// remove/add pairs into moves and re-created values into copies.
type processor struct {
	eq        Equivalence
	unchanged *unchangedIndex
	entries   []ledgerEntry
}

func newProcessor(unchanged *unchangedIndex, eq Equivalence) *processor {
	return &processor{eq: eq, unchanged: unchanged}
}

func (p *processor) recordReplace(path Pointer, oldValue, newValue any) {
	p.entries = append(p.entries, ledgerEntry{kind: entryReplace, path: path, oldValue: oldValue, value: newValue})
}

func (p *processor) recordRemove(path Pointer, oldValue any) {
	p.entries = append(p.entries, ledgerEntry{kind: entryRemove, path: path, oldValue: oldValue})
}

// recordAdd turns the addition into a move when an equivalent value was
// removed earlier, into a copy when an equivalent value survives unchanged
// elsewhere, and records a plain add otherwise.
func (p *processor) recordAdd(path Pointer, value any) {
	if i := p.findPreviouslyRemoved(value); i >= 0 {
		removed := p.entries[i]
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		p.entries = append(p.entries, ledgerEntry{kind: entryMove, from: removed.path, path: path, oldValue: removed.oldValue, value: value})
		return
	}
	if from, ok := p.unchanged.find(value, p.eq); ok {
		p.entries = append(p.entries, ledgerEntry{kind: entryCopy, from: from, path: path, value: value})
		return
	}
	p.entries = append(p.entries, ledgerEntry{kind: entryAdd, path: path, value: value})
}

func (p *processor) recordKeyedRemove(path Pointer, locator map[string]any, oldValue any) {
	p.entries = append(p.entries, ledgerEntry{kind: entryRemove, path: path, oldValue: oldValue, locator: locator})
}

func (p *processor) recordKeyedAdd(path Pointer, locator map[string]any, value any) {
	p.entries = append(p.entries, ledgerEntry{kind: entryAdd, path: path, value: value, locator: locator})
}

func (p *processor) recordKeyedReplace(path Pointer, locator map[string]any, oldValue, newValue any) {
	p.entries = append(p.entries, ledgerEntry{kind: entryReplace, path: path, oldValue: oldValue, value: newValue, locator: locator})
}

// findPreviouslyRemoved returns the index of the first pending removal of a
// value equivalent to value, or -1. A removal whose path is shared with
// another pending removal is skipped: those come from the tail pre-pass of
// an array diff, which removes the same index repeatedly, and the element a
// later move would pick up from that index is not the one removed here.
func (p *processor) findPreviouslyRemoved(value any) int {
	for i, entry := range p.entries {
		if entry.kind != entryRemove || entry.locator != nil {
			continue
		}
		if !p.eq(value, entry.oldValue) || p.removalShared(i) {
			continue
		}
		return i
	}
	return -1
}

func (p *processor) removalShared(i int) bool {
	for j, entry := range p.entries {
		if j != i && entry.kind == entryRemove && entry.path == p.entries[i].path {
			return true
		}
	}
	return false
}

// toPatch emits removals first, then additions, moves and copies, then
// replacements, each group in discovery order.
func (p *processor) toPatch() Patch {
	patch := make(Patch, 0, len(p.entries))
	for _, entry := range p.entries {
		if entry.kind == entryRemove {
			patch = append(patch, entry.operation())
		}
	}
	for _, entry := range p.entries {
		switch entry.kind {
		case entryAdd, entryMove, entryCopy:
			patch = append(patch, entry.operation())
		}
	}
	for _, entry := range p.entries {
		if entry.kind == entryReplace {
			patch = append(patch, entry.operation())
		}
	}
	return patch
}

func (e ledgerEntry) operation() Operation {
	switch e.kind {
	case entryAdd:
		return Operation{Op: Add, Path: e.path, Value: e.value, Locator: e.locator}
	case entryRemove:
		return Operation{Op: Remove, Path: e.path, Locator: e.locator}
	case entryReplace:
		return Operation{Op: Replace, Path: e.path, Value: e.value, Locator: e.locator}
	case entryMove:
		return Operation{Op: Move, From: e.from, Path: e.path}
	case entryCopy:
		return Operation{Op: Copy, From: e.from, Path: e.path}
	}
	panic("jsondelta: unknown ledger entry kind")
}
