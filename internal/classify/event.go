// Package classify turns a fetched feed page into the events worth reporting.
package classify

import "cvereporter/internal/vuln"

// Category says why an event is reported.
type Category string

const (
	New      Category = "new"
	Modified Category = "modified"
)

// CategoryFor maps a polling pass to the category of its events.
func CategoryFor(field vuln.TimeField) Category {
	if field == vuln.LastModified {
		return Modified
	}
	return New
}

// Event is a qualifying record annotated with the keywords that selected it.
type Event struct {
	vuln.Record
	Category Category
	Keywords []string
}

// IDs returns the identifiers of events in order.
func IDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
