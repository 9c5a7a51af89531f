package jsondelta

// keySetFor returns the identity fields registered for the array at ptr,
// provided both arrays can be reconciled by identity: every element is an
// object carrying all of the fields, and no identity repeats within one
// array. Otherwise the array is diffed by position.
func (o *options) keySetFor(ptr Pointer, source, target []any) ([]string, bool) {
	fields, ok := o.keys[ptr]
	if !ok || len(fields) == 0 {
		return nil, false
	}
	for _, arr := range [][]any{source, target} {
		for i, elem := range arr {
			obj, ok := elem.(map[string]any)
			if !ok || len(locatorOf(obj, fields)) != len(fields) {
				return nil, false
			}
			for _, prev := range arr[:i] {
				if sameIdentity(prev.(map[string]any), obj, fields, o.equivalent) {
					return nil, false
				}
			}
		}
	}
	return fields, true
}

// diffKeyed reconciles two arrays by element identity. Identities are
// unique on each side, so every locator addresses exactly one element.
func (d *differ) diffKeyed(ptr Pointer, fields []string, source, target []any) {
	matchOf := make([]int, len(source))
	claimed := make([]bool, len(target))
	for i, s := range source {
		matchOf[i] = -1
		for j, t := range target {
			if !claimed[j] && sameIdentity(s.(map[string]any), t.(map[string]any), fields, d.opts.equivalent) {
				matchOf[i] = j
				claimed[j] = true
				break
			}
		}
	}

	query := ptr.Append(QueryToken)
	for i, s := range source {
		if matchOf[i] < 0 {
			d.proc.recordKeyedRemove(query, locatorOf(s.(map[string]any), fields), s)
		}
	}
	for j, t := range target {
		if !claimed[j] {
			d.proc.recordKeyedAdd(ptr.Append(EndToken), nil, t)
		}
	}
	for i, s := range source {
		if matchOf[i] >= 0 {
			d.diffFields(query, fields, s.(map[string]any), target[matchOf[i]].(map[string]any))
		}
	}
}

// diffFields compares a matched pair field by field. Each differing field
// gets its own operation addressed through the query token.
func (d *differ) diffFields(query Pointer, fields []string, source, target map[string]any) {
	locator := locatorOf(source, fields)
	for _, key := range sortedKeys(source) {
		tv, ok := target[key]
		switch {
		case !ok:
			d.proc.recordKeyedRemove(query.Append(key), locator, source[key])
		case !d.opts.equivalent(source[key], tv):
			d.proc.recordKeyedReplace(query.Append(key), locator, source[key], tv)
		}
	}
	for _, key := range sortedKeys(target) {
		if _, ok := source[key]; !ok {
			d.proc.recordKeyedAdd(query.Append(key), locator, target[key])
		}
	}
}

// sameIdentity reports whether a and b agree on every identity field.
func sameIdentity(a, b map[string]any, fields []string, eq Equivalence) bool {
	for _, f := range fields {
		av, aok := a[f]
		bv, bok := b[f]
		if aok != bok || (aok && !eq(av, bv)) {
			return false
		}
	}
	return true
}

// locatorOf extracts the identity fields present in obj.
func locatorOf(obj map[string]any, fields []string) map[string]any {
	loc := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := obj[f]; ok {
			loc[f] = v
		}
	}
	return loc
}

// findLocated returns the index of the first element of arr that carries
// every locator field with an equivalent value, or -1.
func findLocated(arr []any, locator map[string]any, eq Equivalence) int {
	for i, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		matched := true
		for k, want := range locator {
			got, ok := obj[k]
			if !ok || !eq(got, want) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}
