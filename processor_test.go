package jsondelta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessor_FoldsRemoveAddIntoMove(t *testing.T) {
	p := newProcessor(&unchangedIndex{values: map[Pointer]any{}}, Equivalent)
	p.recordRemove("/a", "v")
	p.recordRemove("/b", "w")
	p.recordAdd("/c", "v")

	assert.Equal(t, Patch{
		{Op: Remove, Path: "/b"},
		{Op: Move, From: "/a", Path: "/c"},
	}, p.toPatch())
}

func TestProcessor_FirstRemovalWins(t *testing.T) {
	p := newProcessor(&unchangedIndex{values: map[Pointer]any{}}, Equivalent)
	p.recordRemove("/a", 1.0)
	p.recordRemove("/b", 1)
	p.recordAdd("/c", 1.0)
	p.recordAdd("/d", 1.0)

	assert.Equal(t, Patch{
		{Op: Move, From: "/a", Path: "/c"},
		{Op: Move, From: "/b", Path: "/d"},
	}, p.toPatch())
}

func TestProcessor_SharedRemovalPathIsNotMoved(t *testing.T) {
	p := newProcessor(&unchangedIndex{values: map[Pointer]any{}}, Equivalent)
	p.recordRemove("/arr/1", "x")
	p.recordRemove("/arr/1", "y")
	p.recordAdd("/o/k", "y")

	assert.Equal(t, Patch{
		{Op: Remove, Path: "/arr/1"},
		{Op: Remove, Path: "/arr/1"},
		{Op: Add, Path: "/o/k", Value: "y"},
	}, p.toPatch())
}

func TestProcessor_CopiesFromUnchanged(t *testing.T) {
	idx := &unchangedIndex{
		paths:  []Pointer{"/x", "/y"},
		values: map[Pointer]any{"/x": "other", "/y": map[string]any{"k": 1.0}},
	}
	p := newProcessor(idx, Equivalent)
	p.recordAdd("/z", map[string]any{"k": 1})

	assert.Equal(t, Patch{{Op: Copy, From: "/y", Path: "/z"}}, p.toPatch())
}

func TestProcessor_MovePreferredOverCopy(t *testing.T) {
	idx := &unchangedIndex{paths: []Pointer{"/x"}, values: map[Pointer]any{"/x": "v"}}
	p := newProcessor(idx, Equivalent)
	p.recordRemove("/a", "v")
	p.recordAdd("/b", "v")

	assert.Equal(t, Patch{{Op: Move, From: "/a", Path: "/b"}}, p.toPatch())
}

func TestProcessor_KeyedEntriesAreNeverFolded(t *testing.T) {
	p := newProcessor(&unchangedIndex{values: map[Pointer]any{}}, Equivalent)
	loc := map[string]any{"id": "1"}
	p.recordKeyedRemove("/l/?", loc, map[string]any{"id": "1"})
	p.recordKeyedReplace("/l/?/v", map[string]any{"id": "2"}, "a", "b")
	p.recordAdd("/m", map[string]any{"id": "1"})

	assert.Equal(t, Patch{
		{Op: Remove, Path: "/l/?", Locator: loc},
		{Op: Add, Path: "/m", Value: map[string]any{"id": "1"}},
		{Op: Replace, Path: "/l/?/v", Value: "b", Locator: map[string]any{"id": "2"}},
	}, p.toPatch())
}
