package jsondelta

import (
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
)

// engine applies single operations under one set of options. Every method
// returns a new tree built by path copying: containers on the way from the
// root to the edit are shallow-copied, everything else is shared and never
// written to.
type engine struct {
	*options
}

func newEngine(o *options) *engine {
	return &engine{options: o}
}

func (e *engine) apply(doc any, op Operation) (any, error) {
	if err := op.Validate(); err != nil {
		return nil, e.decorate(err.(*PatchError))
	}

	var (
		out  any
		perr *PatchError
	)
	switch op.Op {
	case Add:
		out, perr = e.applyAdd(doc, op)
	case Remove:
		out, perr = e.applyRemove(doc, op)
	case Replace:
		out, perr = e.applyReplace(doc, op)
	case Move:
		out, perr = e.applyMove(doc, op)
	case Copy:
		out, perr = e.applyCopy(doc, op)
	case Test:
		perr = e.applyTest(doc, op)
		out = doc
	}
	if perr == nil {
		return out, nil
	}

	perr.Op = op.Op
	e.decorate(perr)
	if !e.strict && op.Op != Test && perr.Kind.Recoverable() {
		e.report(perr)
		return doc, nil
	}
	return nil, perr
}

func (e *engine) decorate(perr *PatchError) *PatchError {
	perr.messages = e.messages
	return perr
}

func (e *engine) report(perr *PatchError) {
	e.logger.Warn("skipped patch operation",
		slog.String("op", string(perr.Op)),
		slog.String("path", perr.Path.String()),
		slog.String("kind", perr.Kind.String()),
		slog.String("reason", perr.Error()),
	)
	if e.diagnostics != nil {
		e.diagnostics(perr)
	}
}

func (e *engine) applyAdd(doc any, op Operation) (any, *PatchError) {
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return nil, perr
	}
	return addAt(doc, path, DeepCopy(op.Value))
}

func (e *engine) applyRemove(doc any, op Operation) (any, *PatchError) {
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return nil, perr
	}
	return removeAt(doc, path)
}

func (e *engine) applyReplace(doc any, op Operation) (any, *PatchError) {
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return nil, perr
	}
	tokens, _ := path.Tokens()
	if _, ok := resolveTokens(doc, tokens); !ok {
		return nil, newError(NoSuchPath, Replace, op.Path)
	}
	value := DeepCopy(op.Value)
	if len(tokens) == 0 {
		return value, nil
	}
	parentTokens, last := tokens[:len(tokens)-1], tokens[len(tokens)-1]
	parent, _ := resolveTokens(doc, parentTokens)
	var updated any
	switch p := parent.(type) {
	case []any:
		i, _ := parseIndex(last)
		arr := slices.Clone(p)
		arr[i] = value
		updated = arr
	case map[string]any:
		obj := maps.Clone(p)
		obj[last] = value
		updated = obj
	}
	return replaceAt(doc, parentTokens, updated), nil
}

func (e *engine) applyMove(doc any, op Operation) (any, *PatchError) {
	from, perr := e.locate(doc, op.From, op.Locator)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	value, ok := from.Resolve(doc)
	if !ok {
		return nil, newError(NoSuchPath, Move, op.Path).withFrom(op.From).withDetail(`"from" does not exist`)
	}
	if from == path {
		return doc, nil
	}
	removed, perr := removeAt(doc, from)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	// the value left the tree with the removal, so it needs no copy
	out, perr := addAt(removed, path, value)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	return out, nil
}

func (e *engine) applyCopy(doc any, op Operation) (any, *PatchError) {
	from, perr := e.locate(doc, op.From, op.Locator)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	value, ok := from.Resolve(doc)
	if !ok {
		return nil, newError(NoSuchPath, Copy, op.Path).withFrom(op.From).withDetail(`"from" does not exist`)
	}
	out, perr := addAt(doc, path, DeepCopy(value))
	if perr != nil {
		return nil, perr.withFrom(op.From)
	}
	return out, nil
}

func (e *engine) applyTest(doc any, op Operation) *PatchError {
	path, perr := e.locate(doc, op.Path, op.Locator)
	if perr != nil {
		return perr
	}
	actual, ok := path.Resolve(doc)
	if !ok {
		return newError(NoSuchPath, Test, op.Path)
	}
	if !e.equivalent(actual, op.Value) {
		return newError(TestFailed, Test, op.Path).withDetail("expected %s, found %s", compact(op.Value), compact(actual))
	}
	return nil
}

// addAt inserts value at path. The value is stored as is; callers pass an
// owned copy.
func addAt(doc any, path Pointer, value any) (any, *PatchError) {
	tokens, _ := path.Tokens()
	if len(tokens) == 0 {
		return value, nil
	}
	parentTokens, last := tokens[:len(tokens)-1], tokens[len(tokens)-1]
	parent, ok := resolveTokens(doc, parentTokens)
	if !ok {
		return nil, newError(NoSuchParent, Add, path)
	}
	switch p := parent.(type) {
	case []any:
		idx := len(p)
		if last != EndToken {
			i, err := parseIndex(last)
			if err != nil {
				return nil, newError(NotAnIndex, Add, path).withDetail("%q", last)
			}
			if i > len(p) {
				return nil, newError(NoSuchIndex, Add, path).withDetail("index %d outside [0, %d]", i, len(p))
			}
			idx = i
		}
		arr := make([]any, 0, len(p)+1)
		arr = append(arr, p[:idx]...)
		arr = append(arr, value)
		arr = append(arr, p[idx:]...)
		return replaceAt(doc, parentTokens, arr), nil
	case map[string]any:
		obj := make(map[string]any, len(p)+1)
		maps.Copy(obj, p)
		obj[last] = value
		return replaceAt(doc, parentTokens, obj), nil
	}
	return nil, newError(ParentNotContainer, Add, path).withDetail("parent is %s", KindOf(parent))
}

func removeAt(doc any, path Pointer) (any, *PatchError) {
	tokens, _ := path.Tokens()
	if _, ok := resolveTokens(doc, tokens); !ok {
		return nil, newError(NoSuchPath, Remove, path)
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	parentTokens, last := tokens[:len(tokens)-1], tokens[len(tokens)-1]
	parent, _ := resolveTokens(doc, parentTokens)
	var updated any
	switch p := parent.(type) {
	case []any:
		i, _ := parseIndex(last)
		arr := make([]any, 0, len(p)-1)
		arr = append(arr, p[:i]...)
		arr = append(arr, p[i+1:]...)
		updated = arr
	case map[string]any:
		obj := maps.Clone(p)
		delete(obj, last)
		updated = obj
	}
	return replaceAt(doc, parentTokens, updated), nil
}

// replaceAt returns a copy of node in which the value at tokens is repl.
// Only the containers along tokens are copied. tokens must resolve.
func replaceAt(node any, tokens []string, repl any) any {
	if len(tokens) == 0 {
		return repl
	}
	switch n := node.(type) {
	case map[string]any:
		obj := maps.Clone(n)
		obj[tokens[0]] = replaceAt(n[tokens[0]], tokens[1:], repl)
		return obj
	case []any:
		i, _ := parseIndex(tokens[0])
		arr := slices.Clone(n)
		arr[i] = replaceAt(n[i], tokens[1:], repl)
		return arr
	}
	return node
}

// locate replaces query tokens in p by the index of the first array element
// matching locator. Pointers without a query token are returned unchanged.
// A query token that crosses an object is an ordinary key.
func (e *engine) locate(doc any, p Pointer, locator map[string]any) (Pointer, *PatchError) {
	tokens, _ := p.Tokens()
	if !slices.Contains(tokens, QueryToken) {
		return p, nil
	}
	out := RootPointer
	cur, found := doc, true
	for _, tok := range tokens {
		if !found {
			out = out.Append(tok)
			continue
		}
		if arr, ok := cur.([]any); ok && tok == QueryToken {
			if len(locator) == 0 {
				return "", newError(NoSuchPath, "", p).withDetail("query token without a locator")
			}
			i := findLocated(arr, locator, e.equivalent)
			if i < 0 {
				return "", newError(NoSuchPath, "", p).withDetail("no element matches locator %s", compact(locator))
			}
			out = out.AppendIndex(i)
			cur = arr[i]
			continue
		}
		out = out.Append(tok)
		cur, found = resolveTokens(cur, []string{tok})
	}
	return out, nil
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "<unencodable>"
	}
	return string(data)
}
