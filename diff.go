package jsondelta

// Diff returns a patch that turns source into target. Both must be value
// trees (see Normalize). Diff is total: it never fails on well-formed trees.
//
// Added values equivalent to a value removed earlier in the walk become
// moves; added values equivalent to a subtree left unchanged elsewhere
// become copies. The patch lists removals first, then additions, moves and
// copies, then replacements.
func Diff(source, target any, opts ...Option) Patch {
	o := newOptions(opts)
	d := &differ{
		opts: o,
		proc: newProcessor(computeUnchanged(source, target, o), o.equivalent),
	}
	d.diff(RootPointer, source, target)
	return d.proc.toPatch()
}

// New normalizes a and b (raw JSON, structs, or value trees) and returns
// the patch that turns a into b.
func New(a, b any, opts ...Option) (Patch, error) {
	source, err := Normalize(a)
	if err != nil {
		return nil, err
	}
	target, err := Normalize(b)
	if err != nil {
		return nil, err
	}
	return Diff(source, target, opts...), nil
}

type differ struct {
	opts *options
	proc *processor
}

func (d *differ) diff(ptr Pointer, source, target any) {
	if d.opts.equivalent(source, target) {
		return
	}
	if KindOf(source) != KindOf(target) || !IsContainer(source) {
		d.proc.recordReplace(ptr, source, target)
		return
	}
	switch s := source.(type) {
	case map[string]any:
		d.diffObjects(ptr, s, target.(map[string]any))
	case []any:
		t := target.([]any)
		if fields, ok := d.opts.keySetFor(ptr, s, t); ok {
			d.diffKeyed(ptr, fields, s, t)
			return
		}
		d.diffArrays(ptr, s, t)
	}
}

func (d *differ) diffObjects(ptr Pointer, source, target map[string]any) {
	for _, key := range sortedKeys(source) {
		if _, ok := target[key]; !ok {
			d.proc.recordRemove(ptr.Append(key), source[key])
		}
	}
	for _, key := range sortedKeys(target) {
		if _, ok := source[key]; !ok {
			d.proc.recordAdd(ptr.Append(key), target[key])
		}
	}
	for _, key := range sortedKeys(source) {
		if tv, ok := target[key]; ok {
			d.diff(ptr.Append(key), source[key], tv)
		}
	}
}

// diffArrays compares arrays by position. Surplus source elements are
// removed first, all at index n since each removal shifts the rest left;
// surplus target elements are appended.
func (d *differ) diffArrays(ptr Pointer, source, target []any) {
	n := min(len(source), len(target))
	for i := n; i < len(source); i++ {
		d.proc.recordRemove(ptr.AppendIndex(n), source[i])
	}
	for i := 0; i < n; i++ {
		d.diff(ptr.AppendIndex(i), source[i], target[i])
	}
	for i := n; i < len(target); i++ {
		d.proc.recordAdd(ptr.Append(EndToken), target[i])
	}
}
