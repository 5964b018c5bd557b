package ollama

import (
	"fmt"
	"strings"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

const maxPromptArticles = 60

func buildEvidencePrompt(name string, articles []domain.Article, rawInterestText string) string {
	var list strings.Builder
	count := len(articles)
	if count > maxPromptArticles {
		count = maxPromptArticles
	}
	for i := 0; i < count; i++ {
		article := articles[i]
		list.WriteString(fmt.Sprintf("[%d] %s", i+1, article.Title))
		if article.Year > 0 {
			list.WriteString(fmt.Sprintf(" (%d)", article.Year))
		}
		if article.CitationCount > 0 {
			list.WriteString(fmt.Sprintf(", cited %d times", article.CitationCount))
		}
		list.WriteString("\n")
	}

	interests := strings.TrimSpace(rawInterestText)
	if interests == "" {
		interests = "(none provided)"
	}

	return fmt.Sprintf(`You are an academic research profile analyst.
Return a strict JSON object with keys:
summary (string, 2-4 sentences describing the researcher's focus),
keyword_evidence (array of {keyword, reasoning, supporting_references: [{title, year, citation_count}]}),
matched_interests (array of strings, the subset of the user's interests this researcher's work addresses; copy interests verbatim from the list, never invent new ones).
No markdown, no extra keys.

Researcher: %s

User interests: %s

Publications:
%s`, name, interests, list.String())
}
