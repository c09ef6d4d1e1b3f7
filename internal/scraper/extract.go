package scraper

import (
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// stripSelectors are the DOM subtrees removed before extracting the page
// body text, matching the teacher scraper's extraction pass.
var stripSelectors = []string{"script", "style", "nav", "footer", "header"}

// extractBody strips script/style/nav/footer/header subtrees from htmlStr
// and returns the page title and the remaining body innerText.
func extractBody(htmlStr string) (title, body string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", "", err
	}

	for _, sel := range stripSelectors {
		doc.Find(sel).Remove()
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	body = strings.TrimSpace(doc.Find("body").First().Text())
	return title, body, nil
}

// extractMarkdown converts htmlStr to markdown for the page's auxiliary
// Markdown field. Conversion failures are non-fatal; callers fall back to
// an empty string.
func extractMarkdown(htmlStr, hostname string) string {
	converter := htmlmd.NewConverter(hostname, true, nil)
	md, err := converter.ConvertString(htmlStr)
	if err != nil {
		return ""
	}
	return md
}
