package llm

import "maps"

// defaultOptions apply to every generation unless the request overrides them.
var defaultOptions = map[string]any{"temperature": 0.1}

func mergeOptions(opts map[string]any) map[string]any {
	out := maps.Clone(defaultOptions)
	maps.Copy(out, opts)
	return out
}

func floatOption(opts map[string]any, key string) (float32, bool) {
	switch v := opts[key].(type) {
	case float64:
		return float32(v), true
	case float32:
		return v, true
	case int:
		return float32(v), true
	}
	return 0, false
}
