package core

// RecursiveMerge merges fragments left to right into a new Schema.
// Nested maps merge recursively, slices concatenate, and any other value
// is overwritten by the later operand. Inputs are never mutated.
func RecursiveMerge(fragments ...Schema) Schema {
	out := make(map[string]any)
	for _, f := range fragments {
		mergeInto(out, f)
	}
	return Schema(out)
}

func mergeInto(dst map[string]any, src map[string]any) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = deepCopy(v)
			continue
		}

		if srcMap, ok := asMap(v); ok {
			if dstMap, ok := asMap(existing); ok {
				merged := deepCopy(dstMap).(map[string]any)
				mergeInto(merged, srcMap)
				dst[k] = merged
				continue
			}
		}

		if srcSlice, ok := v.([]any); ok {
			if dstSlice, ok := existing.([]any); ok {
				joined := make([]any, 0, len(dstSlice)+len(srcSlice))
				joined = append(joined, dstSlice...)
				joined = append(joined, deepCopy(srcSlice).([]any)...)
				dst[k] = joined
				continue
			}
		}

		dst[k] = deepCopy(v)
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Schema:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func deepCopy(v any) any {
	if m, ok := asMap(v); ok {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = deepCopy(val)
		}
		return out
	}
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		for i, val := range s {
			out[i] = deepCopy(val)
		}
		return out
	}
	return v
}
