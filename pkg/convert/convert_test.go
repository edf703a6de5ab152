package convert

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/postport/postport/internal/logger"
	"github.com/postport/postport/pkg/images"
)

// newSite serves a small blog site. Every page body has the token
// "SRV" replaced with the server's own base URL at serve time, so
// fixtures can reference the image and gallery endpoints. Any path
// under /img/ answers with a JPEG body; /down/ answers 503.
func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegdata"))
	})
	mux.HandleFunc("/down/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	for path, body := range pages {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.ReplaceAll(body, "SRV", srv.URL)))
		})
	}

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_RewriteStrategyScenario(t *testing.T) {
	chdir(t, t.TempDir())

	srv := newSite(t, map[string]string{
		"/blog/my-trip": `<html><head><meta property="og:title" content="My Trip"></head>
<body><article>
<p class="sqs-block">Hello</p>
<img src="SRV/img/a.jpg"/>
</article></body></html>`,
	})

	job := DefaultJob(srv.URL + "/blog/my-trip")
	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Title != "My Trip" {
		t.Errorf("Title = %q, want My Trip", report.Title)
	}
	if report.FragmentPath != filepath.Join("My_Trip", "My_Trip.html") {
		t.Errorf("FragmentPath = %q", report.FragmentPath)
	}

	data, err := os.ReadFile(report.FragmentPath)
	if err != nil {
		t.Fatalf("fragment not written: %v", err)
	}
	fragment := string(data)

	if !strings.HasPrefix(fragment, "<h1>My Trip</h1>") {
		t.Errorf("fragment must begin with the title heading:\n%s", fragment)
	}
	if !strings.Contains(fragment, "<p>Hello</p>") {
		t.Errorf("paragraph missing (or class not stripped):\n%s", fragment)
	}
	if !strings.Contains(fragment, `<img src="images/my_trip_1.jpg"/>`) {
		t.Errorf("image not rewritten to local path:\n%s", fragment)
	}

	if _, err := os.Stat(filepath.Join("My_Trip", "images", "my_trip_1.jpg")); err != nil {
		t.Errorf("downloaded image missing: %v", err)
	}
	if len(report.Images) != 1 || report.Images[0] != "my_trip_1.jpg" {
		t.Errorf("report.Images = %v", report.Images)
	}
}

func TestRun_PlaceholderStrategyToStdout(t *testing.T) {
	chdir(t, t.TempDir())

	srv := newSite(t, map[string]string{
		"/blog/pl": `<html><head><meta property="og:title" content="My Trip"></head>
<body><article>
<p><img src="SRV/img/lead.jpg"/></p>
<p>Hello</p>
<p><img src="SRV/img/b.jpg"/></p>
</article></body></html>`,
	})

	job := DefaultJob(srv.URL + "/blog/pl")
	job.OutputPath = "-"
	job.ImageMode = images.StrategyPlaceholder

	var out bytes.Buffer
	c, err := New(job, WithStdout(&out))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.FragmentPath != "-" {
		t.Errorf("FragmentPath = %q, want -", report.FragmentPath)
	}

	fragment := out.String()
	if !strings.HasPrefix(fragment, "<h1>My Trip</h1>") {
		t.Errorf("fragment must begin with the title heading:\n%s", fragment)
	}
	// Lead placeholder elided, second one kept.
	if strings.Count(fragment, images.Placeholder) != 1 {
		t.Errorf("expected exactly one surviving placeholder:\n%s", fragment)
	}
	if strings.Contains(fragment, "<img") {
		t.Errorf("no img elements expected under placeholder strategy:\n%s", fragment)
	}

	// Stdout mode still downloads into ./images.
	if _, err := os.Stat(filepath.Join("images", "my_trip_1.jpg")); err != nil {
		t.Errorf("downloaded image missing: %v", err)
	}
}

func TestRun_GalleryAppendedAndDownloaded(t *testing.T) {
	chdir(t, t.TempDir())

	srv := newSite(t, map[string]string{
		"/blog/gal": `<html><head><meta property="og:title" content="My Trip"></head>
<body><article>
<p>Hello</p>
<a href="/work/gallery#summer">gallery</a>
</article></body></html>`,
		"/work/gallery": `<html><body>
<div class="project" data-project-id="projects-summer">
  <div class="sqs-gallery"><img src="SRV/img/g1.jpg?format=500w"/></div>
  <div class="project-description">The hills. Read More...</div>
</div></body></html>`,
	})

	job := DefaultJob(srv.URL + "/blog/gal")
	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(report.FragmentPath)
	if err != nil {
		t.Fatalf("fragment not written: %v", err)
	}
	fragment := string(data)

	for _, want := range []string{"<hr/>", "<h2>Gallery</h2>", "<p>The hills.</p>"} {
		if !strings.Contains(fragment, want) {
			t.Errorf("missing %q in fragment:\n%s", want, fragment)
		}
	}

	if len(report.GalleryImages) != 1 || report.GalleryImages[0] != "gallery_my_trip_1.jpg" {
		t.Errorf("GalleryImages = %v", report.GalleryImages)
	}
	if _, err := os.Stat(filepath.Join("My_Trip", "images", "gallery_my_trip_1.jpg")); err != nil {
		t.Errorf("gallery image missing on disk: %v", err)
	}
}

func TestRun_GalleryUnreachableStillConverts(t *testing.T) {
	chdir(t, t.TempDir())

	srv := newSite(t, map[string]string{
		"/blog/g": `<html><head><meta property="og:title" content="My Trip"></head>
<body><article>
<p>Hello</p>
<a href="SRV/down/gallery#summer">gallery</a>
</article></body></html>`,
	})

	var logs bytes.Buffer
	logger.Init(logger.Options{Output: &logs})
	t.Cleanup(func() { logger.Init(logger.Options{}) })

	job := DefaultJob(srv.URL + "/blog/g")
	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(report.FragmentPath)
	if err != nil {
		t.Fatalf("fragment not written: %v", err)
	}
	if strings.Contains(string(data), "<h2>Gallery</h2>") {
		t.Error("no gallery section expected when the gallery page is unreachable")
	}
	if !strings.Contains(logs.String(), "gallery page unreachable") {
		t.Errorf("expected warning about unreachable gallery, got logs:\n%s", logs.String())
	}
}

func TestRun_ExplicitOutputPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out.html")

	srv := newSite(t, map[string]string{
		"/blog/plain": `<html><body><main><p>only text</p></main></body></html>`,
	})

	job := DefaultJob(srv.URL + "/blog/plain")
	job.OutputPath = out

	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.FragmentPath != out {
		t.Errorf("FragmentPath = %q, want %q", report.FragmentPath, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("fragment not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "<h1>Untitled Post</h1>") {
		t.Errorf("expected default title, got:\n%s", data)
	}
}

func TestRun_ManifestWritten(t *testing.T) {
	chdir(t, t.TempDir())

	srv := newSite(t, map[string]string{
		"/blog/m": `<html><head><meta property="og:title" content="My Trip"></head>
<body><article><p>Hello</p></article></body></html>`,
	})

	job := DefaultJob(srv.URL + "/blog/m")
	job.ManifestPath = "run.yaml"

	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = c.Close() }()

	if _, err := c.Run(context.Background(), job); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile("run.yaml")
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	manifest := string(data)
	for _, want := range []string{"source_url:", "title: My Trip", "strategy: rewrite", "My_Trip.html"} {
		if !strings.Contains(manifest, want) {
			t.Errorf("manifest missing %q:\n%s", want, manifest)
		}
	}
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	srv := newSite(t, nil)
	url := srv.URL + "/blog/my-trip"
	srv.Close()

	job := DefaultJob(url)
	c, err := New(job)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.Run(context.Background(), job); err == nil {
		t.Fatal("expected error when the page fetch fails")
	}
}

func TestNew_ValidatesJob(t *testing.T) {
	tests := []struct {
		name string
		job  Job
	}{
		{"missing URL", Job{ImageMode: images.StrategyRewrite, ImageNames: images.NameSequential}},
		{"not a URL", Job{URL: "::not-a-url::", ImageMode: images.StrategyRewrite, ImageNames: images.NameSequential}},
		{"bad image mode", Job{URL: "https://example.com/x", ImageMode: "delete", ImageNames: images.NameSequential}},
		{"bad name policy", Job{URL: "https://example.com/x", ImageMode: images.StrategyRewrite, ImageNames: "hash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.job); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
