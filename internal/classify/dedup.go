package classify

// Dedup removes from modified every event whose ID is also in newEvents,
// so a record published and touched within one cycle is reported once, as new.
// newEvents is returned untouched.
func Dedup(newEvents, modified []Event) ([]Event, []Event) {
	if len(newEvents) == 0 || len(modified) == 0 {
		return newEvents, modified
	}

	seen := make(map[string]struct{}, len(newEvents))
	for _, e := range newEvents {
		seen[e.ID] = struct{}{}
	}

	kept := make([]Event, 0, len(modified))
	for _, e := range modified {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		kept = append(kept, e)
	}
	return newEvents, kept
}
