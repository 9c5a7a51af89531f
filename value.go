package jsondelta

import (
	"bytes"
	"encoding/json"
	"math/big"
	"reflect"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

// Kind is the JSON type tag of a value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// KindOf returns the JSON type of v. Values that are not part of a decoded
// JSON tree report KindInvalid; run them through Normalize first.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	case float64, float32, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return KindNumber
	}
	return KindInvalid
}

// IsContainer reports whether v is an array or an object.
func IsContainer(v any) bool {
	k := KindOf(v)
	return k == KindArray || k == KindObject
}

// DeepCopy returns an independently owned copy of v.
func DeepCopy(v any) any {
	return clone.Clone(v)
}

// Equivalence decides whether two values are structurally the same.
type Equivalence func(a, b any) bool

// Equivalent compares two value trees structurally. Numbers compare by
// numeric value regardless of their Go type or textual form, so 1, 1.0 and
// json.Number("1e0") are all equivalent.
func Equivalent(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		return numbersEqual(a, b)
	case KindArray:
		x, y := a.([]any), b.([]any)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equivalent(x[i], y[i]) {
				return false
			}
		}
		return true
	case KindObject:
		x, y := a.(map[string]any), b.(map[string]any)
		if len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equivalent(xv, yv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func numbersEqual(a, b any) bool {
	if x, ok := a.(float64); ok {
		if y, ok := b.(float64); ok {
			return x == y
		}
	}
	x, y := toRat(a), toRat(b)
	if x == nil || y == nil {
		// NaN, infinities or unparsable json.Number
		return reflect.DeepEqual(a, b)
	}
	return x.Cmp(y) == 0
}

func toRat(v any) *big.Rat {
	switch n := v.(type) {
	case float64:
		return new(big.Rat).SetFloat64(n)
	case float32:
		return new(big.Rat).SetFloat64(float64(n))
	case json.Number:
		r, ok := new(big.Rat).SetString(n.String())
		if !ok {
			return nil
		}
		return r
	case int:
		return new(big.Rat).SetInt64(int64(n))
	case int8:
		return new(big.Rat).SetInt64(int64(n))
	case int16:
		return new(big.Rat).SetInt64(int64(n))
	case int32:
		return new(big.Rat).SetInt64(int64(n))
	case int64:
		return new(big.Rat).SetInt64(n)
	case uint:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(uint64(n)))
	case uint8:
		return new(big.Rat).SetInt64(int64(n))
	case uint16:
		return new(big.Rat).SetInt64(int64(n))
	case uint32:
		return new(big.Rat).SetInt64(int64(n))
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(n))
	}
	return nil
}

// Normalize turns v into a value tree. Raw JSON ([]byte, json.RawMessage)
// is decoded; trees built from []any, map[string]any and scalars are
// returned as is; anything else (structs, typed maps and slices) goes
// through a JSON round trip.
func Normalize(v any) (any, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return decodeValue(raw)
	case []byte:
		return decodeValue(raw)
	}
	if isTree(v) {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot normalize %T", v)
	}
	return decodeValue(data)
}

func decodeValue(data []byte) (any, error) {
	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "cannot decode JSON value")
	}
	return out, nil
}

func isTree(v any) bool {
	switch node := v.(type) {
	case []any:
		for _, child := range node {
			if !isTree(child) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, child := range node {
			if !isTree(child) {
				return false
			}
		}
		return true
	}
	return KindOf(v) != KindInvalid
}
