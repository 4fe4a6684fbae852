package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var contentSelectors = []string{
	"main",
	"article",
	".document",
	".content",
	"#content",
}

// ExtractHTMLText parses an HTML document and returns its readable text.
// Navigation, scripts, and styling are dropped; the first matching content
// container is used, falling back to the body.
func ExtractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, iframe, form").Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	// Block elements become line breaks so paragraphs survive Text()
	mainContent.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return CleanText(mainContent.Text()), nil
}
