package vuln

import (
	"strings"
	"time"
)

// TimeLayout is the feed's timestamp format. Fractional seconds are accepted
// on input and dropped.
const TimeLayout = "2006-01-02T15:04:05"

// TimeField selects which record timestamp a polling pass works on.
// The values are the feed's own field names.
type TimeField string

const (
	Published    TimeField = "Published"
	LastModified TimeField = "last-modified"
)

// Of returns the timestamp of r selected by f.
func (f TimeField) Of(r Record) time.Time {
	if f == LastModified {
		return r.LastModified
	}
	return r.Published
}

func (f TimeField) String() string { return string(f) }

// Record is one vulnerability as returned by the feed.
type Record struct {
	ID                      string    `json:"id"`
	Published               time.Time `json:"published"`
	LastModified            time.Time `json:"last_modified"`
	Summary                 string    `json:"summary"`
	References              []string  `json:"references"`
	VulnerableConfiguration []string  `json:"vulnerable_configuration"`

	// Display only.
	CVSS       string `json:"cvss,omitempty"`
	CVSSVector string `json:"cvss_vector,omitempty"`
	CWE        string `json:"cwe,omitempty"`
}

// ProductText renders the affected-product list as a single string for keyword matching.
func (r Record) ProductText() string {
	if len(r.VulnerableConfiguration) == 0 {
		return ""
	}
	return "['" + strings.Join(r.VulnerableConfiguration, "', '") + "']"
}

// HasReferences reports whether the record cites at least one reference URL.
func (r Record) HasReferences() bool {
	return len(r.References) > 0
}
