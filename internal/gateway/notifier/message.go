package notifier

import (
	"strings"
	"time"
)

const maxMessageLen = 3800

// Section is one titled block of lines in a notification.
type Section struct {
	Title string
	Lines []string
}

// Message is the shared layout for Telegram pushes: header, fenced body,
// footer, timestamp.
type Message struct {
	Icon      string
	Title     string
	Sections  []Section
	Footer    string
	Timestamp time.Time
}

// RenderMarkdown produces the Markdown body, truncated to the Telegram limit.
func (m Message) RenderMarkdown() string {
	var b strings.Builder
	if header := strings.TrimSpace(m.Icon + " " + m.Title); header != "" {
		b.WriteString(header + "\n\n")
	}

	var body []string
	for _, sec := range m.Sections {
		var block []string
		if title := strings.TrimSpace(sec.Title); title != "" {
			block = append(block, escapeFence(title))
		}
		for _, line := range sec.Lines {
			if text := strings.TrimSpace(line); text != "" {
				block = append(block, "- "+escapeFence(text))
			}
		}
		if len(block) > 0 {
			body = append(body, strings.Join(block, "\n"))
		}
	}
	if len(body) > 0 {
		b.WriteString("```\n" + strings.Join(body, "\n\n") + "\n```\n\n")
	}

	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(escapeFence(footer) + "\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString("Time: " + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxMessageLen {
		out = out[:maxMessageLen] + "..."
	}
	return out
}

// escapeFence keeps user text from terminating the code fence early.
func escapeFence(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
