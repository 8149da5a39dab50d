package usecase

import (
	"fmt"
	"strings"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

const noContext = "No content available."

func buildContext(pages []entity.ScrapedPage) string {
	if len(pages) == 0 {
		return noContext
	}

	parts := make([]string, 0, len(pages))
	for i, p := range pages {
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		url := p.URL
		if url == "" {
			url = "N/A"
		}
		parts = append(parts, fmt.Sprintf("\n--- Source %d: %s ---\nURL: %s\n%s\n", i+1, title, url, p.Content))
	}

	return strings.Join(parts, "\n")
}

func writerPrompt(topic, context string, previousWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a research analyst. Write a comprehensive research report on '%s'. Use the following sources:\n\n", topic)
	b.WriteString(context)
	fmt.Fprintf(&b, `

Format the report in markdown with:

# %s

## Introduction

## Key Findings
(5-7 bullet points with insights)

## Detailed Analysis

## Conclusion

Cite sources naturally in text using the source URLs provided.`, topic)

	if previousWords > 0 {
		fmt.Fprintf(&b, "\n\nThe previous draft had only %d words. Expand every section with concrete detail.", previousWords)
	}

	return b.String()
}

func editorPrompt(draft string) string {
	return fmt.Sprintf(`Review and polish this research report for clarity, grammar, and flow:

%s

Improve the structure, fix any grammatical errors, enhance readability, and ensure all sections flow logically. Maintain all citations and sources.`, draft)
}
