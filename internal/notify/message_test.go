package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvereporter/internal/classify"
	"cvereporter/internal/vuln"
)

func sampleEvent(category classify.Category) classify.Event {
	return classify.Event{
		Record: vuln.Record{
			ID:           "CVE-2024-0001",
			Published:    time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
			LastModified: time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC),
			Summary:      "Buffer overflow in OpenSSL",
			References:   []string{"r1", "r2", "r3", "r4", "r5"},
			VulnerableConfiguration: []string{
				"c1", "c2", "c3", "c4", "c5", "c6", "c7",
			},
			CVSS:       "7.5",
			CVSSVector: "AV:N/AC:L/Au:N/C:P/I:P/A:P",
			CWE:        "CWE-787",
		},
		Category: category,
		Keywords: []string{"openssl", "OpenSSL"},
	}
}

func fieldByName(t *testing.T, msg Message, name string) Field {
	t.Helper()
	for _, f := range msg.Fields {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "field not found", "no field %q", name)
	return Field{}
}

func TestFormat_New(t *testing.T) {
	msg := Format(sampleEvent(classify.New))

	assert.Equal(t, "🚨  *CVE-2024-0001*  🚨", msg.Title)
	assert.Equal(t, "Buffer overflow in OpenSSL", msg.Description)
	assert.Equal(t, colorBlue, msg.Color)
	assert.Empty(t, msg.Footer)

	assert.Equal(t, "openssl, OpenSSL", fieldByName(t, msg, "✅  *Keywords*").Value)
	assert.Equal(t, "2024-01-02T10:00:00", fieldByName(t, msg, "📅  *Published*").Value)
	assert.Equal(t, "c1\nc2\nc3\nc4\nc5\nc6", fieldByName(t, msg, "🔓  *Vulnerable* (_limit to 6_)").Value)
	assert.Equal(t, "r1\nr2\nr3\nr4", fieldByName(t, msg, "More Information (_limit to 4_)").Value)
}

func TestFormat_NewWithoutKeywordsOrConfigurations(t *testing.T) {
	ev := sampleEvent(classify.New)
	ev.Keywords = nil
	ev.VulnerableConfiguration = nil

	msg := Format(ev)
	names := make([]string, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"📅  *Published*", "More Information (_limit to 4_)"}, names)
}

func TestFormat_Modified(t *testing.T) {
	msg := Format(sampleEvent(classify.Modified))

	assert.Equal(t, "📣 *CVE-2024-0001 Modified*", msg.Title)
	assert.Equal(t, "CVSS: AV:N/AC:L/Au:N/C:P/I:P/A:P (7.5)\nCWE: CWE-787", msg.Description)
	assert.Equal(t, colorGold, msg.Color)
	assert.Equal(t, "(First published on 2024-01-02)", msg.Footer)
	assert.Equal(t, "Buffer overflow in OpenSSL", fieldByName(t, msg, "🗣 *Summary*").Value)
	assert.Equal(t, "2024-01-05T12:30:00", fieldByName(t, msg, "📅  *Modified*").Value)
}

func TestFormat_ModifiedWithoutScores(t *testing.T) {
	ev := sampleEvent(classify.Modified)
	ev.CVSS = ""
	ev.CWE = ""

	msg := Format(ev)
	assert.Empty(t, msg.Description)
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", 399)
	assert.Equal(t, short, truncate(short, 400))

	exact := strings.Repeat("b", 400)
	assert.Equal(t, exact+"...", truncate(exact, 400))

	long := strings.Repeat("é", 450)
	got := truncate(long, 400)
	assert.Equal(t, strings.Repeat("é", 400)+"...", got)
}

func TestMessage_Text(t *testing.T) {
	msg := Message{
		Title:       "T",
		Description: "D",
		Fields:      []Field{{Name: "N", Value: "V"}},
		Footer:      "F",
	}
	assert.Equal(t, "T\n\nD\n\nN\nV\n\nF", msg.Text())
}
