// Package render serializes the transformed content tree into the flat
// HTML fragment handed to the target platform's editor.
package render

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/postport/postport/pkg/gallery"
	"github.com/postport/postport/pkg/images"
)

// StripParagraphClasses removes the presentational class attribute from
// every paragraph element, leaving everything else untouched. Running
// it twice yields the same tree as running it once.
func StripParagraphClasses(content *goquery.Selection) {
	content.Find("p[class]").Each(func(_ int, p *goquery.Selection) {
		p.RemoveAttr("class")
	})
}

// allow-listed tags emitted into the fragment. h1 is deliberately
// absent: the title heading is synthesized and body-level h1s would
// duplicate it.
var allowedTags = []string{"p", "ul", "ol", "pre", "blockquote", "h2", "h3", "h4", "h5", "h6"}

// Fragment renders the post fragment: a synthesized h1 from title,
// then every allow-listed element of content in document order,
// newline-joined, with no surrounding html/body wrapper. Elements
// nested inside an already-emitted element are not re-emitted.
//
// Under the rewrite strategy img elements join the allow-list so the
// relocated images survive into the fragment. Under the placeholder
// strategy the first sentinel paragraph is elided, approximating the
// source platform's special treatment of the lead image.
func Fragment(title string, content *goquery.Selection, strategy images.Strategy) string {
	tags := allowedTags
	if strategy == images.StrategyRewrite {
		tags = append(append([]string{}, allowedTags...), "img")
	}
	selector := strings.Join(tags, ", ")

	parts := []string{"<h1>" + html.EscapeString(title) + "</h1>"}

	content.Find(selector).Each(func(_ int, s *goquery.Selection) {
		// Skip nested matches; the top-most match already carries them.
		if s.ParentsFiltered(selector).Length() > 0 {
			return
		}
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		parts = append(parts, strings.TrimSpace(markup))
	})

	if strategy == images.StrategyPlaceholder {
		parts = elideFirstPlaceholder(parts)
	}

	return strings.Join(parts, "\n")
}

// AppendGallery adds the trailing gallery section to a rendered
// fragment when a description was produced.
func AppendGallery(fragment string, result gallery.Result) string {
	if result.Description == "" {
		return fragment
	}
	section := []string{
		fragment,
		"<hr/>",
		"<h2>Gallery</h2>",
		"<p>" + html.EscapeString(result.Description) + "</p>",
	}
	return strings.Join(section, "\n")
}

// elideFirstPlaceholder removes the first sentinel paragraph from the
// rendered parts. Only the first occurrence is removed; the title
// heading at index 0 is never a candidate.
func elideFirstPlaceholder(parts []string) []string {
	sentinel := "<p>" + images.Placeholder + "</p>"
	for i := 1; i < len(parts); i++ {
		if parts[i] == sentinel {
			return append(parts[:i], parts[i+1:]...)
		}
	}
	return parts
}
