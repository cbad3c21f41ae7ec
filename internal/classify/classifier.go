package classify

import (
	"time"

	"cvereporter/internal/filtering"
	"cvereporter/internal/vuln"
)

// Classify selects the records of one pass that are newer than mark and
// match policy, and returns the advanced watermark.
//
// Every record is tested against the incoming mark, so records sharing a
// timestamp are judged alike. A record advances the watermark whether or not
// it qualifies, except records without references, which are ignored entirely.
// Output keeps input order.
func Classify(records []vuln.Record, mark time.Time, field vuln.TimeField, policy *filtering.Policy) ([]Event, time.Time) {
	var events []Event
	advanced := mark
	category := CategoryFor(field)

	for _, r := range records {
		if !r.HasReferences() {
			continue
		}

		t := field.Of(r)
		keywords := Keywords(r, policy)

		if t.After(mark) && (policy.AcceptAll() || len(keywords) > 0) {
			events = append(events, Event{Record: r, Category: category, Keywords: keywords})
		}

		if t.After(advanced) {
			advanced = t
		}
	}

	return events, advanced
}

// Keywords returns the summary and product keyword matches of r, de-duplicated.
func Keywords(r vuln.Record, policy *filtering.Policy) []string {
	matched := policy.MatchSummary(r.Summary)
	matched = append(matched, policy.MatchProducts(r.ProductText())...)
	return filtering.Unique(matched)
}
