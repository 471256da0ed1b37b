package dispatch

import (
	"strings"

	"subwatch/internal/feed"
)

// formatItem renders the notification payload. Plain text, no markup:
// titles routinely contain characters that break Markdown/HTML parse modes.
func formatItem(topic string, item feed.Item) string {
	var b strings.Builder
	b.WriteString("r/")
	b.WriteString(topic)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(item.Title))
	if a := strings.TrimSpace(item.Author); a != "" {
		b.WriteString("\nby u/")
		b.WriteString(a)
	}
	if l := strings.TrimSpace(item.Link); l != "" {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return b.String()
}
