package classifier

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const SystemInstruction = "You are an intelligent assistant that determines characteristics about data"

const promptTemplate = `Assess the title and summary of this article, and extract the topic and the primary well-known individual involved in the article.
Name only the single most prominent individual, using their First and Last name regardless of how they are referenced in the article data.
If no individual can be identified, answer none.

Output format:
Topic: <singular topic>
Individuals: <First Last, or none>
Sentiment: <Positive|Neutral|Negative>

Input:
Article Title: %s
Article Summary: %s`

// BuildPrompt renders the classification request for one article. Markup in
// the summary is reduced to its text.
func BuildPrompt(title, summary string) string {
	return fmt.Sprintf(promptTemplate, collapse(title), plainText(summary))
}

func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}

	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
