package notify

import (
	"strings"
	"unicode/utf8"

	"cvereporter/internal/classify"
	"cvereporter/internal/vuln"
)

const (
	summaryLimit        = 400
	configurationsLimit = 6
	referencesLimit     = 4

	colorBlue = 0x3498db
	colorGold = 0xf1c40f
)

// Field is a titled block of a notification.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a channel-neutral notification rendered from one event.
type Message struct {
	EventID     string
	Category    classify.Category
	Title       string
	Description string
	Fields      []Field
	Footer      string
	Color       int
}

// Format renders an event with the template for its category.
func Format(ev classify.Event) Message {
	if ev.Category == classify.Modified {
		return formatModified(ev)
	}
	return formatNew(ev)
}

func formatNew(ev classify.Event) Message {
	msg := Message{
		EventID:     ev.ID,
		Category:    ev.Category,
		Title:       "🚨  *" + ev.ID + "*  🚨",
		Description: truncate(ev.Summary, summaryLimit),
		Color:       colorBlue,
	}

	if len(ev.Keywords) > 0 {
		msg.Fields = append(msg.Fields, Field{Name: "✅  *Keywords*", Value: strings.Join(ev.Keywords, ", "), Inline: true})
	}
	msg.Fields = append(msg.Fields, Field{Name: "📅  *Published*", Value: ev.Published.Format(vuln.TimeLayout), Inline: true})

	if len(ev.VulnerableConfiguration) > 0 {
		msg.Fields = append(msg.Fields, Field{
			Name:  "🔓  *Vulnerable* (_limit to 6_)",
			Value: strings.Join(limit(ev.VulnerableConfiguration, configurationsLimit), "\n"),
		})
	}
	msg.Fields = append(msg.Fields, Field{
		Name:  "More Information (_limit to 4_)",
		Value: strings.Join(limit(ev.References, referencesLimit), "\n"),
	})
	return msg
}

func formatModified(ev classify.Event) Message {
	var desc strings.Builder
	if ev.CVSSVector != "" && ev.CVSS != "" {
		desc.WriteString("CVSS: " + ev.CVSSVector + " (" + ev.CVSS + ")\n")
	}
	if ev.CWE != "" {
		desc.WriteString("CWE: " + ev.CWE)
	}

	msg := Message{
		EventID:     ev.ID,
		Category:    ev.Category,
		Title:       "📣 *" + ev.ID + " Modified*",
		Description: strings.TrimSuffix(desc.String(), "\n"),
		Color:       colorGold,
		Footer:      "(First published on " + ev.Published.Format("2006-01-02") + ")",
	}

	msg.Fields = append(msg.Fields, Field{Name: "🗣 *Summary*", Value: truncate(ev.Summary, summaryLimit)})
	if len(ev.Keywords) > 0 {
		msg.Fields = append(msg.Fields, Field{Name: "✅  *Keywords*", Value: strings.Join(ev.Keywords, ", "), Inline: true})
	}
	msg.Fields = append(msg.Fields, Field{Name: "📅  *Modified*", Value: ev.LastModified.Format(vuln.TimeLayout), Inline: true})
	msg.Fields = append(msg.Fields, Field{
		Name:  "More Information (_limit to 4_)",
		Value: strings.Join(limit(ev.References, referencesLimit), "\n"),
	})
	return msg
}

// Text renders m as Slack mrkdwn.
func (m Message) Text() string {
	parts := []string{m.Title}
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	for _, f := range m.Fields {
		parts = append(parts, f.Name+"\n"+f.Value)
	}
	if m.Footer != "" {
		parts = append(parts, m.Footer)
	}
	return strings.Join(parts, "\n\n")
}

// truncate cuts s to n runes and marks the cut. Summaries of exactly n runes are marked too.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) < n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
