// Package jsondelta computes and applies JSON Patches (RFC 6902) addressed
// by JSON Pointers (RFC 6901).
//
// Diff compares two decoded JSON trees and emits an ordered Patch, folding
// remove/add pairs of equal values into moves and re-created unchanged
// values into copies. Arrays registered with WithKeySet are reconciled by
// element identity instead of position. Apply runs a Patch against a tree
// without mutating it, under a strict or lenient error policy.
package jsondelta

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Op represents JSON Patch operation types
type Op string

const (
	Add     Op = "add"
	Remove  Op = "remove"
	Replace Op = "replace"
	Move    Op = "move"
	Copy    Op = "copy"
	Test    Op = "test"
)

func (o Op) valid() bool {
	switch o {
	case Add, Remove, Replace, Move, Copy, Test:
		return true
	}
	return false
}

// carriesValue reports whether the wire form of o has a "value" member.
func (o Op) carriesValue() bool {
	return o == Add || o == Replace || o == Test
}

// carriesFrom reports whether the wire form of o has a "from" member.
func (o Op) carriesFrom() bool {
	return o == Move || o == Copy
}

// Operation represents a single JSON Patch operation.
//
// Locator is an extension used with the query token: when Path (or From)
// goes through an array via "?", the first element whose fields are
// equivalent to every Locator entry is the one addressed.
type Operation struct {
	Op      Op
	Path    Pointer
	From    Pointer
	Value   any
	Locator map[string]any
}

// Apply applies the operation to document and returns the new document.
// The input is never modified. With strict unset, a missing target or a
// non-container parent leaves the document unchanged instead of failing.
func (op Operation) Apply(document any, strict bool) (any, error) {
	return newEngine(newOptions([]Option{WithStrict(strict)})).apply(document, op)
}

// Patch represents a collection of JSON Patch operations
type Patch []Operation

// Apply applies a series of JSON Patch operations to a document, returning a new
// modified document. The original document is not changed.
func Apply(document any, patch Patch, opts ...Option) (any, error) {
	e := newEngine(newOptions(opts))
	for i, op := range patch {
		var err error
		document, err = e.apply(document, op)
		if err != nil {
			return nil, errors.Wrapf(err, "patch operation %d (%s) failed", i, op.Op)
		}
	}
	return document, nil
}

// ApplyStream applies a series of JSON Patch operations to the document read
// from reader and writes the result to writer.
func ApplyStream(reader io.Reader, writer io.Writer, patch Patch, opts ...Option) error {
	var doc any
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&doc); err != nil {
		return errors.Wrap(err, "failed to decode document")
	}

	modifiedDoc, err := Apply(doc, patch, opts...)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	return errors.Wrap(encoder.Encode(modifiedDoc), "failed to encode document")
}
