package settings

// Merge deep-merges overlay onto base and returns a new document.
// Nested objects merge recursively key-by-key; scalars and arrays are
// replaced wholesale by the overlay value. Arrays never concatenate, so
// repeated resolution cannot accumulate duplicates across scopes.
func Merge(base, overlay Document) Document {
	if base == nil && overlay == nil {
		return Document{}
	}

	merged := make(Document, len(base)+len(overlay))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overlay {
		existing, ok := merged[key]
		if !ok {
			merged[key] = value
			continue
		}
		merged[key] = mergeValues(existing, value)
	}
	return merged
}

func mergeValues(base, overlay any) any {
	baseMap, baseOK := asMap(base)
	overlayMap, overlayOK := asMap(overlay)
	if baseOK && overlayOK {
		return map[string]any(Merge(baseMap, overlayMap))
	}
	return overlay
}

func asMap(value any) (Document, bool) {
	switch m := value.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}
