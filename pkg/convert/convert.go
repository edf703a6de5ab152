// Package convert wires the conversion pipeline together: fetch the
// post, parse title and content, relocate images, sanitize, render the
// fragment, and write it to its destination. One invocation converts
// exactly one post; nothing is shared across runs.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/postport/postport/internal/logger"
	"github.com/postport/postport/pkg/fetcher"
	"github.com/postport/postport/pkg/gallery"
	"github.com/postport/postport/pkg/images"
	"github.com/postport/postport/pkg/post"
	"github.com/postport/postport/pkg/render"
)

// Job describes one conversion run.
type Job struct {
	// URL of the source post. Required.
	URL string `validate:"required,url"`

	// OutputPath controls the destination: empty derives a post
	// directory from the title, "-" writes the fragment to stdout,
	// anything else is an explicit file path.
	OutputPath string

	// ImageMode selects the image-handling strategy.
	ImageMode images.Strategy `validate:"oneof=rewrite placeholder"`

	// ImageNames selects the filename policy for downloads.
	ImageNames images.NamePolicy `validate:"oneof=seq random"`

	// TitleSuffix, when non-empty, is trimmed from the end of the
	// metadata title (site-name suffixes like " — Example Studio").
	TitleSuffix string

	// ManifestPath, when non-empty, receives a YAML record of the run.
	ManifestPath string

	UserAgent string
	Timeout   time.Duration
}

// DefaultJob returns a job with the default strategy set.
func DefaultJob(url string) Job {
	return Job{
		URL:        url,
		ImageMode:  images.StrategyRewrite,
		ImageNames: images.NameSequential,
	}
}

// Report summarizes a completed conversion.
type Report struct {
	Title         string
	FragmentPath  string // "-" when written to stdout
	Images        []string
	GalleryImages []string
}

// Converter runs conversion jobs.
type Converter struct {
	fetcher fetcher.Fetcher
	stdout  io.Writer
}

// Option configures a Converter.
type Option func(*Converter)

// WithFetcher injects a custom transport.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Converter) {
		c.fetcher = f
	}
}

// WithStdout redirects fragment output destined for stdout.
func WithStdout(w io.Writer) Option {
	return func(c *Converter) {
		c.stdout = w
	}
}

// New creates a Converter for the given job configuration.
func New(job Job, opts ...Option) (*Converter, error) {
	if err := validator.New().Struct(job); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	c := &Converter{stdout: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.NewStatic(fetcher.Config{
			UserAgent: job.UserAgent,
			Timeout:   job.Timeout,
		})
	}
	return c, nil
}

// Close releases the underlying transport.
func (c *Converter) Close() error {
	return c.fetcher.Close()
}

// Run executes the job. The page fetch and the final write are fatal;
// individual image downloads and the gallery page are not.
func (c *Converter) Run(ctx context.Context, job Job) (*Report, error) {
	html, err := c.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}

	p, err := post.Parse(html, job.TitleSuffix)
	if err != nil {
		return nil, fmt.Errorf("parse post: %w", err)
	}

	dest, err := resolveDestination(job.OutputPath, p.Title)
	if err != nil {
		return nil, err
	}

	// Detect the gallery link before the content tree is mutated.
	var galleryResult gallery.Result
	if link := gallery.FindLink(p.Content, job.URL); link != "" {
		logger.Debug("gallery link found", "url", link)
		galleryResult, err = gallery.Extract(ctx, c.fetcher, link)
		if err != nil {
			// Recoverable: the gallery section is simply omitted.
			logger.Warn("gallery page unreachable", "url", link, "error", err)
			galleryResult = gallery.Result{}
		}
	}

	prefix := images.TitlePrefix(p.Title)
	proc := images.NewProcessor(c.fetcher, dest.imagesDir, job.ImageMode, job.ImageNames)

	saved, err := proc.Process(ctx, p.Content, prefix)
	if err != nil {
		return nil, err
	}

	var gallerySaved []string
	if len(galleryResult.ImageURLs) > 0 {
		gallerySaved, err = proc.DownloadAll(ctx, galleryResult.ImageURLs, "gallery_"+prefix)
		if err != nil {
			return nil, err
		}
	}

	render.StripParagraphClasses(p.Content)

	fragment := render.Fragment(p.Title, p.Content, job.ImageMode)
	fragment = render.AppendGallery(fragment, galleryResult)

	if err := c.write(dest, fragment); err != nil {
		return nil, err
	}

	report := &Report{
		Title:         p.Title,
		FragmentPath:  dest.fragmentPath,
		Images:        saved,
		GalleryImages: gallerySaved,
	}

	if job.ManifestPath != "" {
		if err := writeManifest(job, report); err != nil {
			return nil, err
		}
	}

	logger.Info("wrote fragment",
		"path", dest.fragmentPath,
		"title", p.Title,
		"images", len(saved),
		"gallery_images", len(gallerySaved))

	return report, nil
}

func (c *Converter) write(dest destination, fragment string) error {
	if dest.stdout {
		if _, err := fmt.Fprintln(c.stdout, fragment); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(dest.fragmentPath, []byte(fragment), 0o640); err != nil {
		return fmt.Errorf("write fragment: %w", err)
	}
	return nil
}
