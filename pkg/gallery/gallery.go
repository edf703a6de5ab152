// Package gallery extracts an embedded image-gallery fragment linked
// from a post. Galleries on the source platform are a single page of
// "project" sections toggled by a client-side fragment identifier, so
// the link target is a URL with a #fragment rather than a distinct path.
package gallery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/postport/postport/internal/logger"
	"github.com/postport/postport/pkg/fetcher"
)

// Result holds the images and description of one gallery section.
// A zero Result means the gallery markup was absent, which is normal
// input variation and not an error.
type Result struct {
	ImageURLs   []string
	Description string
}

// Empty reports whether the extraction found nothing.
func (r Result) Empty() bool {
	return len(r.ImageURLs) == 0 && r.Description == ""
}

// separators trimmed from fragment identifiers and data attributes
// before matching.
const idSeparators = "/-_#"

// FindLink returns the absolute URL of the first gallery link inside
// content, resolved against baseURL. A link qualifies when its resolved
// target carries a non-empty fragment and a path containing "gallery".
// Returns "" when the post has no gallery link.
func FindLink(content *goquery.Selection, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	var found string
	content.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(u)
		if resolved.Fragment == "" || !strings.Contains(resolved.Path, "gallery") {
			return true
		}
		found = resolved.String()
		return false
	})
	return found
}

// Extract fetches the gallery page at galleryURL and pulls the image
// URLs and description of the project section addressed by the URL
// fragment. A transport failure is returned to the caller (who treats
// it as recoverable); missing markup yields an empty Result, nil error.
func Extract(ctx context.Context, f fetcher.Fetcher, galleryURL string) (Result, error) {
	u, err := url.Parse(galleryURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse gallery URL: %w", err)
	}

	html, err := f.Fetch(ctx, galleryURL)
	if err != nil {
		return Result{}, fmt.Errorf("fetch gallery page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("parse gallery page: %w", err)
	}

	project := matchProject(doc, u.Fragment)
	if project == nil {
		logger.Debug("no gallery project matched", "url", galleryURL, "fragment", u.Fragment)
		return Result{}, nil
	}

	return Result{
		ImageURLs:   collectImages(project, u),
		Description: extractDescription(project),
	}, nil
}

// matchProject finds the project container addressed by the fragment:
// first by suffix-matching the derived identifier against each
// candidate's data-project-id, falling back to the active project.
func matchProject(doc *goquery.Document, fragment string) *goquery.Selection {
	derived := strings.Trim(fragment, idSeparators)

	var matched *goquery.Selection
	if derived != "" {
		doc.Find(".project[data-project-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("data-project-id")
			if strings.HasSuffix(strings.Trim(id, idSeparators), derived) {
				matched = s
				return false
			}
			return true
		})
	}
	if matched != nil {
		return matched
	}

	if active := doc.Find(".project.active").First(); active.Length() > 0 {
		return active
	}
	return nil
}

// collectImages gathers the image URLs of the project's image-list
// container in document order, absolutized and with query strings
// stripped. An absent container yields nil.
func collectImages(project *goquery.Selection, base *url.URL) []string {
	list := project.Find(".sqs-gallery").First()
	if list.Length() == 0 {
		return nil
	}

	var urls []string
	list.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" {
			return
		}
		u, err := url.Parse(src)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(u)
		resolved.RawQuery = ""
		resolved.Fragment = ""
		urls = append(urls, resolved.String())
	})
	return urls
}

// readMoreVariants are the trailing call-to-action strings stripped
// from gallery descriptions, matched case-insensitively.
var readMoreVariants = []string{
	"read more...",
	"read more…",
	"read more",
}

func extractDescription(project *goquery.Selection) string {
	desc := strings.TrimSpace(project.Find(".project-description").First().Text())
	if desc == "" {
		return ""
	}

	lower := strings.ToLower(desc)
	for _, variant := range readMoreVariants {
		if strings.HasSuffix(lower, variant) {
			desc = strings.TrimSpace(desc[:len(desc)-len(variant)])
			break
		}
	}
	return desc
}
