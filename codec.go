package jsondelta

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type wireOperation struct {
	Op      Op              `json:"op"`
	From    *Pointer        `json:"from,omitempty"`
	Path    *Pointer        `json:"path"`
	Value   json.RawMessage `json:"value,omitempty"`
	Locator map[string]any  `json:"locator,omitempty"`
}

// MarshalJSON encodes the RFC 6902 wire form. "value" is written for add,
// replace and test even when it is null, and "from" for move and copy even
// when it is the root pointer.
func (op Operation) MarshalJSON() ([]byte, error) {
	path := op.Path
	w := wireOperation{Op: op.Op, Path: &path, Locator: op.Locator}
	if op.Op.carriesFrom() {
		from := op.From
		w.From = &from
	}
	if op.Op.carriesValue() {
		raw, err := json.Marshal(op.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode value of %s at %q", op.Op, op.Path)
		}
		w.Value = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates one wire operation.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "malformed patch operation")
	}
	if !w.Op.valid() {
		return newError(UnknownOperation, w.Op, "").withDetail("%q", string(w.Op))
	}
	if w.Path == nil {
		return newError(NullArgument, w.Op, "").withDetail(`missing "path"`)
	}
	decoded := Operation{Op: w.Op, Path: *w.Path, Locator: w.Locator}
	if w.Op.carriesFrom() {
		if w.From == nil {
			return newError(NullArgument, w.Op, *w.Path).withDetail(`missing "from"`)
		}
		decoded.From = *w.From
	}
	if w.Op.carriesValue() {
		if len(w.Value) == 0 {
			return newError(NullArgument, w.Op, *w.Path).withDetail(`missing "value"`)
		}
		if err := json.Unmarshal(w.Value, &decoded.Value); err != nil {
			return errors.Wrapf(err, "cannot decode value of %s at %q", w.Op, *w.Path)
		}
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*op = decoded
	return nil
}

// Validate checks that the operation is well formed: a known op and valid
// pointers.
func (op Operation) Validate() error {
	if !op.Op.valid() {
		return newError(UnknownOperation, op.Op, op.Path).withDetail("%q", string(op.Op))
	}
	if _, err := op.Path.Tokens(); err != nil {
		return newError(InvalidPointer, op.Op, op.Path).withDetail(`"path" is not a JSON pointer`)
	}
	if op.Op.carriesFrom() {
		if _, err := op.From.Tokens(); err != nil {
			return newError(InvalidPointer, op.Op, op.Path).withFrom(op.From).withDetail(`"from" is not a JSON pointer`)
		}
	}
	return nil
}

// DecodePatch decodes an RFC 6902 patch document.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "cannot decode patch")
	}
	if p == nil {
		return nil, newError(NullArgument, "", "").withDetail("patch document is null")
	}
	return p, nil
}

// Encode returns the wire form of the patch. An empty patch encodes as [].
func (p Patch) Encode() ([]byte, error) {
	if p == nil {
		p = Patch{}
	}
	return json.Marshal([]Operation(p))
}

func (p Patch) String() string {
	data, err := p.Encode()
	if err != nil {
		return "<invalid patch: " + err.Error() + ">"
	}
	return string(data)
}
