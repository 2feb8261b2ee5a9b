package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

const digestInstruction = `You are a market intelligence analyst. Summarize the search results below in 3-5 sentences of plain prose. Name the main themes and any notable announcements. Do not invent facts that are not in the results and do not include URLs.`

// buildDigestPrompt renders the instruction plus a numbered listing of the
// results, truncated so the payload stays under maxChars.
func buildDigestPrompt(keywords []string, results []models.SearchResult, maxChars int) string {
	var b strings.Builder
	b.WriteString(digestInstruction)
	b.WriteString("\n\nKeywords: ")
	b.WriteString(strings.Join(keywords, ", "))
	b.WriteString("\n\nResults:\n")

	for i, result := range results {
		line := formatResultLine(i+1, &result)
		if maxChars > 0 && b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}

	return b.String()
}

func formatResultLine(n int, result *models.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", n, result.Title)
	if result.Source != "" {
		fmt.Fprintf(&b, " (%s", result.Source)
		if result.PublishedDate != nil {
			fmt.Fprintf(&b, ", %s", result.PublishedDate.Format(time.DateOnly))
		}
		b.WriteString(")")
	} else if result.PublishedDate != nil {
		fmt.Fprintf(&b, " (%s)", result.PublishedDate.Format(time.DateOnly))
	}
	if result.Snippet != "" {
		fmt.Fprintf(&b, ": %s", result.Snippet)
	}
	b.WriteString("\n")
	return b.String()
}
