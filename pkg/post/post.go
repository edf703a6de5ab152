// Package post locates the title and article body of a fetched blog
// post page. The source platform's markup conventions are treated as a
// drifting external contract, so every lookup falls back rather than
// failing when a convention is absent.
package post

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/postport/postport/internal/logger"
)

// DefaultTitle is used when neither metadata nor headings yield a title.
const DefaultTitle = "Untitled Post"

// Post is the parsed form of one blog post page. Content is a live
// selection into Doc; mutations (image replacement, class stripping)
// happen in place before rendering. Doc travels alongside Content so
// new nodes are always minted from the owning document rather than
// recovered by climbing parent references.
type Post struct {
	Title   string
	Content *goquery.Selection
	Doc     *goquery.Document
}

// Parse extracts the title and content container from raw HTML.
//
// Title resolution order: og:title metadata (trimmed, minus titleSuffix
// when it matches), first h1/h2 with non-empty text, DefaultTitle.
// Content resolution order: article, main, body. First match wins.
func Parse(html string, titleSuffix string) (*Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	title := resolveTitle(doc, titleSuffix)
	content := resolveContent(doc)

	logger.Debug("post parsed", "title", title, "container", goquery.NodeName(content))

	return &Post{
		Title:   title,
		Content: content,
		Doc:     doc,
	}, nil
}

func resolveTitle(doc *goquery.Document, titleSuffix string) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		title := strings.TrimSpace(og)
		if titleSuffix != "" {
			title = strings.TrimSpace(strings.TrimSuffix(title, titleSuffix))
		}
		if title != "" {
			return title
		}
	}

	title := ""
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			title = text
			return false
		}
		return true
	})
	if title != "" {
		return title
	}

	return DefaultTitle
}

func resolveContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"article", "main", "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	// goquery always synthesizes a body, so this is unreachable in
	// practice; return the document root to keep callers total.
	return doc.Selection
}
