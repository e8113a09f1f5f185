package domain

// DeepMerge merges patch into target key by key: when both sides hold a
// plain map the merge recurses, otherwise the patch value replaces the
// existing one outright. Neither input is mutated.
func DeepMerge(target, patch map[string]any) map[string]any {
	out := make(map[string]any, len(target)+len(patch))
	for k, v := range target {
		out[k] = v
	}
	for k, pv := range patch {
		tm, tok := out[k].(map[string]any)
		pm, pok := pv.(map[string]any)
		if tok && pok {
			out[k] = DeepMerge(tm, pm)
			continue
		}
		out[k] = pv
	}
	return out
}

// ApplyConnectionType switches the binding's mode on its map form: stamps
// status Online and the update time, backfills identity defaults so
// dependent screens never render blank fields, and seeds the new mode's
// sub-record with placeholders when absent. The other mode's sub-record is
// left untouched.
func ApplyConnectionType(m map[string]any, connectionType string, nowMillis int64) map[string]any {
	next := DeepMerge(m, map[string]any{
		"connectionType": connectionType,
		"status":         StatusOnline,
		"updatedAt":      nowMillis,
	})

	backfill := func(key, val string) {
		if s, ok := next[key].(string); !ok || s == "" {
			next[key] = val
		}
	}
	backfill("name", DefaultName)
	backfill("id", DefaultID)
	backfill("model", DefaultModel)
	backfill("firmware", DefaultFirmware)

	if connectionType == ConnectionWifi {
		if _, ok := next["wifi"].(map[string]any); !ok {
			next["wifi"] = DefaultWifi()
		}
	} else {
		if _, ok := next["bluetooth"].(map[string]any); !ok {
			next["bluetooth"] = DefaultBluetooth()
		}
	}
	return next
}
