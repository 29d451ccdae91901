package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var contentSelectors = []string{
	"article", ".article-content", ".article-body", ".entry-content",
	".post-content", ".news-content", ".contenido", "[itemprop=articleBody]",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// specialCharsRe drops anything outside Spanish-letter/digit/punctuation
// classes, mirroring the original cleaner's character allowlist.
var specialCharsRe = regexp.MustCompile(`[^\w\sáéíóúñÁÉÍÓÚÑ.,;:!?()-]`)

const (
	maxTextLength  = 2000
	minTextLength  = 100
	maxFallbackPs  = 20
)

// extractArticle parses html and returns its title and cleaned body
// text, per the title/body selector cascade.
func extractArticle(html []byte) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return "", ""
	}

	doc.Find("script, style, nav, footer, header, aside, iframe, noscript, form").Remove()

	title = extractTitle(doc)
	text = extractBody(doc)
	return title, cleanText(text)
}

func extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return trimmed
		}
	}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if text := strings.TrimSpace(h1.Text()); text != "" {
			return text
		}
	}
	if t := doc.Find("title").First(); t.Length() > 0 {
		full := strings.TrimSpace(t.Text())
		parts := strings.SplitN(full, "|", 2)
		if trimmed := strings.TrimSpace(parts[0]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func extractBody(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		paragraphs := sel.Find("p")
		if paragraphs.Length() == 0 {
			continue
		}
		var texts []string
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(p.Text()))
		})
		if joined := strings.Join(texts, " "); strings.TrimSpace(joined) != "" {
			return joined
		}
	}

	var texts []string
	doc.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if i >= maxFallbackPs {
			return false
		}
		texts = append(texts, strings.TrimSpace(p.Text()))
		return true
	})
	return strings.Join(texts, " ")
}

// cleanText normalizes whitespace, drops characters outside the allowed
// class, and truncates to maxTextLength.
func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = specialCharsRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}
	return text
}
