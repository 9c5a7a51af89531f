package jsondelta_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/jsondelta"
)

func TestOperation_MarshalJSON(t *testing.T) {
	testCases := []struct {
		name string
		op   jsondelta.Operation
		want string
	}{
		{
			name: "null value is written",
			op:   jsondelta.Operation{Op: jsondelta.Add, Path: "/a", Value: nil},
			want: `{"op":"add","path":"/a","value":null}`,
		},
		{
			name: "root from is written",
			op:   jsondelta.Operation{Op: jsondelta.Move, From: "", Path: "/a"},
			want: `{"op":"move","from":"","path":"/a"}`,
		},
		{
			name: "remove has no value",
			op:   jsondelta.Operation{Op: jsondelta.Remove, Path: "/a", Value: 1},
			want: `{"op":"remove","path":"/a"}`,
		},
		{
			name: "locator is written",
			op: jsondelta.Operation{
				Op:      jsondelta.Replace,
				Path:    "/list/?/n",
				Value:   2,
				Locator: map[string]any{"id": "x"},
			},
			want: `{"op":"replace","path":"/list/?/n","value":2,"locator":{"id":"x"}}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.op)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestOperation_UnmarshalJSON(t *testing.T) {
	t.Run("null value", func(t *testing.T) {
		var op jsondelta.Operation
		require.NoError(t, json.Unmarshal([]byte(`{"op":"test","path":"/a","value":null}`), &op))
		assert.Equal(t, jsondelta.Test, op.Op)
		assert.Nil(t, op.Value)
	})

	t.Run("root from", func(t *testing.T) {
		var op jsondelta.Operation
		require.NoError(t, json.Unmarshal([]byte(`{"op":"copy","from":"","path":"/a"}`), &op))
		assert.Equal(t, jsondelta.RootPointer, op.From)
	})

	testCases := []struct {
		name string
		data string
		kind jsondelta.ErrorKind
	}{
		{"unknown op", `{"op":"frobnicate","path":"/a"}`, jsondelta.UnknownOperation},
		{"missing path", `{"op":"remove"}`, jsondelta.NullArgument},
		{"missing from", `{"op":"move","path":"/a"}`, jsondelta.NullArgument},
		{"missing value", `{"op":"add","path":"/a"}`, jsondelta.NullArgument},
		{"bad path", `{"op":"remove","path":"a"}`, jsondelta.InvalidPointer},
		{"bad from", `{"op":"copy","from":"/~9","path":"/a"}`, jsondelta.InvalidPointer},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var op jsondelta.Operation
			err := json.Unmarshal([]byte(tc.data), &op)
			var perr *jsondelta.PatchError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.kind, perr.Kind)
		})
	}
}

func TestDecodePatch(t *testing.T) {
	p, err := jsondelta.DecodePatch([]byte(`[
		{"op":"add","path":"/a","value":[1]},
		{"op":"remove","path":"/b"}
	]`))
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, []any{1.0}, p[0].Value)

	_, err = jsondelta.DecodePatch([]byte(`null`))
	assert.ErrorIs(t, err, jsondelta.ErrNullArgument)

	_, err = jsondelta.DecodePatch([]byte(`{"op":"add"}`))
	assert.Error(t, err)

	_, err = jsondelta.DecodePatch([]byte(`[{"op":"remove","path":"/b"}] garbage`))
	assert.Error(t, err)

	_, err = jsondelta.DecodePatch([]byte(`[] []`))
	assert.Error(t, err)
}

func TestPatch_Encode(t *testing.T) {
	var empty jsondelta.Patch
	data, err := empty.Encode()
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	p := jsondelta.Patch{
		{Op: jsondelta.Remove, Path: jsondelta.PointerOf("a/b")},
		{Op: jsondelta.Copy, From: "/x", Path: "/y"},
	}
	assert.Equal(t, `[{"op":"remove","path":"/a~1b"},{"op":"copy","from":"/x","path":"/y"}]`, p.String())

	decoded, err := jsondelta.DecodePatch([]byte(p.String()))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestPatchError_Render(t *testing.T) {
	_, err := jsondelta.Apply(decode(t, `{"a":[1]}`), jsondelta.Patch{
		{Op: jsondelta.Move, From: "/a/3", Path: "/b"},
	})
	var perr *jsondelta.PatchError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, jsondelta.NoSuchPath, perr.Kind)
	assert.Equal(t, jsondelta.Pointer("/a/3"), perr.From)
	assert.Contains(t, perr.Error(), `move: no such path in target JSON document (from "/a/3", path "/b")`)
	assert.Contains(t, perr.Render(jsondelta.Messages{jsondelta.NoSuchPath: "introuvable"}), `move: introuvable (from "/a/3"`)
	assert.Contains(t, perr.Render(nil), "no such path")

	assert.Equal(t, "NoSuchIndex", jsondelta.NoSuchIndex.String())
	assert.True(t, jsondelta.NoSuchParent.Recoverable())
	assert.False(t, jsondelta.TestFailed.Recoverable())
	assert.False(t, jsondelta.NotAnIndex.Recoverable())
}
