// Package images downloads the images referenced by a post and rewires
// the content tree to point at the local copies. An individual download
// failure is logged and skipped, never escalated: one unreachable image
// must not discard an otherwise-successful conversion.
package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"

	"github.com/postport/postport/internal/logger"
	"github.com/postport/postport/pkg/fetcher"
)

// Placeholder is the sentinel inserted in place of removed images under
// StrategyPlaceholder.
const Placeholder = "[[[ IMAGE ]]]"

// Strategy selects what happens to an image element after download.
type Strategy string

const (
	// StrategyRewrite keeps the element and repoints src to the local copy.
	StrategyRewrite Strategy = "rewrite"
	// StrategyPlaceholder replaces the element with a sentinel paragraph.
	StrategyPlaceholder Strategy = "placeholder"
)

// Processor downloads images into a local directory and mutates the
// content tree according to the configured strategy.
type Processor struct {
	fetcher  fetcher.Fetcher
	strategy Strategy
	policy   NamePolicy
	dir      string
}

// NewProcessor creates a processor writing into dir, creating it if absent.
func NewProcessor(f fetcher.Fetcher, dir string, strategy Strategy, policy NamePolicy) *Processor {
	return &Processor{
		fetcher:  f,
		strategy: strategy,
		policy:   policy,
		dir:      dir,
	}
}

// Process walks every img element inside content in document order,
// downloads each to the images directory and applies the strategy.
// It returns the local filenames of successful downloads. The only
// error returned is a filesystem one; transport failures per image are
// logged and skipped.
func (p *Processor) Process(ctx context.Context, content *goquery.Selection, prefix string) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	var saved []string

	index := 0
	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		index++

		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}

		name := fileName(p.policy, prefix, index, src)
		if err := p.download(ctx, src, name); err != nil {
			// Placeholder strategy leaves the element unprocessed;
			// rewrite strategy keeps the remote URL.
			logger.Warn("failed to download image", "url", src, "error", err)
			return
		}
		saved = append(saved, name)

		switch p.strategy {
		case StrategyPlaceholder:
			replaceWithPlaceholder(img)
		default:
			img.SetAttr("src", "images/"+name)
		}
	})

	return saved, nil
}

// DownloadAll fetches a list of image URLs (a gallery pass) into the
// images directory under the given prefix with its own 1-based index
// sequence. Failures are logged and skipped.
func (p *Processor) DownloadAll(ctx context.Context, urls []string, prefix string) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	var saved []string
	for i, u := range urls {
		name := fileName(p.policy, prefix, i+1, u)
		if err := p.download(ctx, u, name); err != nil {
			logger.Warn("failed to download gallery image", "url", u, "error", err)
			continue
		}
		saved = append(saved, name)
	}
	return saved, nil
}

func (p *Processor) download(ctx context.Context, rawURL, name string) error {
	body, err := p.fetcher.FetchBytes(ctx, rawURL)
	if err != nil {
		return err
	}
	target := filepath.Join(p.dir, name)
	if err := os.WriteFile(target, body, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	logger.Debug("image saved", "url", rawURL, "file", target, "bytes", len(body))
	return nil
}

// replaceWithPlaceholder swaps the image for a sentinel paragraph. When
// the image is the sole content of its enclosing paragraph, the whole
// paragraph is replaced to avoid an empty wrapper around the sentinel.
func replaceWithPlaceholder(img *goquery.Selection) {
	sentinel := "<p>" + Placeholder + "</p>"

	parent := img.Parent()
	if goquery.NodeName(parent) == "p" && parent.Contents().Length() == 1 {
		parent.ReplaceWithHtml(sentinel)
		return
	}
	img.ReplaceWithHtml(sentinel)
}
