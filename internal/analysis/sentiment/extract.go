package sentiment

import "sort"

// ExtractTitle finds a headline inside a heterogeneous news record. The
// title may sit at the top level, under a "content" mapping, or arbitrarily
// deep in nested mappings; the search is depth-first and returns the first
// non-empty title found. Key order is fixed (title, then content, then the
// rest sorted) so extraction is deterministic.
func ExtractTitle(record map[string]any) (string, bool) {
	if record == nil {
		return "", false
	}

	if title, ok := stringValue(record["title"]); ok {
		return title, true
	}
	if content, ok := record["content"].(map[string]any); ok {
		if title, ok := ExtractTitle(content); ok {
			return title, true
		}
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		if k == "title" || k == "content" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if nested, ok := record[k].(map[string]any); ok {
			if title, ok := ExtractTitle(nested); ok {
				return title, true
			}
		}
	}
	return "", false
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
