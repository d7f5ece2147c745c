package snapshot

// upgradeFunc transforms a raw snapshot document from one schema version to
// the next. Each step is pure: it derives a new document from the old one
// and never touches the store.
type upgradeFunc func(map[string]any) (map[string]any, error)

// upgrades maps schema version N to the step that produces version N+1.
var upgrades = map[int]upgradeFunc{
	1: upgradeV1ToV2,
}

// upgradeV1ToV2 introduces parts. Version 1 documents predate chapter
// grouping entirely, so every chapter becomes uncategorized: no parts, no
// part references, position carries over unchanged.
func upgradeV1ToV2(doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}

	if _, ok := out["parts"]; !ok {
		out["parts"] = []any{}
	}

	chapters, _ := out["chapters"].([]any)
	upgraded := make([]any, 0, len(chapters))
	for _, c := range chapters {
		ch, ok := c.(map[string]any)
		if !ok {
			upgraded = append(upgraded, c)
			continue
		}
		next := make(map[string]any, len(ch))
		for k, v := range ch {
			next[k] = v
		}
		delete(next, "part_id")
		delete(next, "position_in_part")
		upgraded = append(upgraded, next)
	}
	out["chapters"] = upgraded
	return out, nil
}
