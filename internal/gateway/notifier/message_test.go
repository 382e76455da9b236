package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownLayout(t *testing.T) {
	m := Message{
		Icon:  "📈",
		Title: "Paper Trade Opened",
		Sections: []Section{
			{Title: "Position", Lines: []string{"BTCUSDT LONG", "entry 50000.00"}},
			{Title: "Risk", Lines: []string{"stop 49000.00"}},
		},
		Footer:    "yagati paper engine",
		Timestamp: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}

	out := m.RenderMarkdown()

	assert.True(t, strings.HasPrefix(out, "📈 Paper Trade Opened"))
	assert.Contains(t, out, "```\nPosition\n- BTCUSDT LONG\n- entry 50000.00\n\nRisk\n- stop 49000.00\n```")
	assert.Contains(t, out, "yagati paper engine")
	assert.Contains(t, out, "Time: 2026-08-29 12:00:00 UTC")
}

func TestRenderMarkdownSkipsEmptyParts(t *testing.T) {
	m := Message{Title: "Cycle", Sections: []Section{
		{Title: "  ", Lines: []string{"", "  "}},
	}}
	out := m.RenderMarkdown()
	assert.Equal(t, "Cycle", out)
}

func TestRenderMarkdownEscapesFence(t *testing.T) {
	m := Message{Sections: []Section{{Lines: []string{"weird ``` input"}}}}
	out := m.RenderMarkdown()
	assert.NotContains(t, out, "weird ``` input")
	assert.Contains(t, out, "weird ''' input")
}

func TestRenderMarkdownTruncates(t *testing.T) {
	m := Message{Sections: []Section{{Lines: []string{strings.Repeat("x", 5000)}}}}
	out := m.RenderMarkdown()
	assert.LessOrEqual(t, len(out), maxMessageLen+3)
	assert.True(t, strings.HasSuffix(out, "..."))
}
