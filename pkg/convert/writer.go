package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// destination is the resolved output layout for one run.
type destination struct {
	stdout       bool
	fragmentPath string // "-" when stdout is set
	imagesDir    string
}

var nonNameChars = regexp.MustCompile(`[^\w-]`)

// PostName derives a filesystem-friendly name from the post title:
// whitespace to underscores, anything outside word characters and
// hyphens stripped, capped at 15 characters. Empty results fall back
// to "post".
func PostName(title string) string {
	name := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	name = nonNameChars.ReplaceAllString(name, "")
	if len(name) > 15 {
		name = name[:15]
	}
	if name == "" {
		return "post"
	}
	return name
}

// resolveDestination maps the output option to a concrete layout and
// creates the needed directories. Directory creation is idempotent.
//
//	""  → <PostName(title)>/<PostName(title)>.html, images beside it
//	"-" → fragment to stdout, images under ./images
//	else → explicit fragment path, images beside it
func resolveDestination(outputPath, title string) (destination, error) {
	switch outputPath {
	case "-":
		return destination{
			stdout:       true,
			fragmentPath: "-",
			imagesDir:    filepath.Join(".", "images"),
		}, nil
	case "":
		name := PostName(title)
		if err := os.MkdirAll(name, 0o750); err != nil {
			return destination{}, fmt.Errorf("create post dir: %w", err)
		}
		return destination{
			fragmentPath: filepath.Join(name, name+".html"),
			imagesDir:    filepath.Join(name, "images"),
		}, nil
	default:
		dir := filepath.Dir(outputPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return destination{}, fmt.Errorf("create output dir: %w", err)
		}
		return destination{
			fragmentPath: outputPath,
			imagesDir:    filepath.Join(dir, "images"),
		}, nil
	}
}

// Manifest is the YAML record of one conversion run.
type Manifest struct {
	SourceURL     string    `yaml:"source_url"`
	Title         string    `yaml:"title"`
	Strategy      string    `yaml:"strategy"`
	Fragment      string    `yaml:"fragment"`
	Images        []string  `yaml:"images,omitempty"`
	GalleryImages []string  `yaml:"gallery_images,omitempty"`
	ConvertedAt   time.Time `yaml:"converted_at"`
}

func writeManifest(job Job, report *Report) error {
	m := Manifest{
		SourceURL:     job.URL,
		Title:         report.Title,
		Strategy:      string(job.ImageMode),
		Fragment:      report.FragmentPath,
		Images:        report.Images,
		GalleryImages: report.GalleryImages,
		ConvertedAt:   time.Now().UTC(),
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(job.ManifestPath, data, 0o640); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
