package search

import "strings"

const (
	fallbackHeader   = "Based on the information available:"
	fallbackSnippets = 3
	emptyMessage     = "No relevant information was found."
)

// Compose renders a query result as caller-facing text. A direct Q&A match
// returns the stored answer verbatim; otherwise up to three top-ranked
// snippets are composed into a fixed-form summary, one line per snippet.
func Compose(result *Result) string {
	if result == nil {
		return emptyMessage
	}
	if result.Direct {
		return result.Answer
	}
	if len(result.Snippets) == 0 {
		return emptyMessage
	}

	var b strings.Builder
	b.WriteString(fallbackHeader)
	for i, snippet := range result.Snippets {
		if i >= fallbackSnippets {
			break
		}
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(snippet.Text))
		b.WriteString(" (Source: ")
		b.WriteString(snippet.Source)
		b.WriteString(")")
	}
	return b.String()
}
