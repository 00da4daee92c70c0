package metrics

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// DocsCollector combines README completeness with the share of source files
// that open with a docstring.
type DocsCollector struct {
	cfg   config.Docs
	files FileSet
}

// NewDocsCollector creates a DocsCollector.
func NewDocsCollector(cfg config.Docs, files FileSet) *DocsCollector {
	return &DocsCollector{cfg: cfg, files: files}
}

func (c *DocsCollector) Name() string { return NameDocs }

// Collect never fails: a missing README scores 0 and unreadable source
// files count as undocumented.
func (c *DocsCollector) Collect(_ context.Context, root string) Result {
	sections, readmeScore := c.readme(root)
	ratio, total := c.docstrings(root)

	return NewResult(c.cfg.ReadmeWeight*readmeScore+c.cfg.DocstringWeight*ratio, Evidence{
		"readme_sections": sections,
		"docstring_ratio": ratio,
		"source_files":    total,
	})
}

// readme returns per-section presence and the fraction of sections found.
func (c *DocsCollector) readme(root string) (map[string]bool, float64) {
	sections := make(map[string]bool, len(c.cfg.Sections))
	for _, s := range c.cfg.Sections {
		sections[s] = false
	}

	data, err := os.ReadFile(filepath.Join(root, c.cfg.ReadmeFile))
	if err != nil || len(c.cfg.Sections) == 0 {
		return sections, 0
	}

	text := strings.ToLower(string(data))
	found := 0
	for _, s := range c.cfg.Sections {
		if strings.Contains(text, strings.ToLower(s)) {
			sections[s] = true
			found++
		}
	}
	return sections, float64(found) / float64(len(c.cfg.Sections))
}

// docstrings returns the fraction of source files whose head contains a
// docstring delimiter, and the number of source files inspected.
func (c *DocsCollector) docstrings(root string) (float64, int) {
	files := c.files.Walk(root)
	if len(files) == 0 {
		return 0, 0
	}

	documented := 0
	for _, path := range files {
		head, err := readHead(path, c.cfg.HeadChars)
		if err != nil {
			continue
		}
		for _, delim := range c.cfg.Delimiters {
			if delim != "" && bytes.Contains(head, []byte(delim)) {
				documented++
				break
			}
		}
	}
	return float64(documented) / float64(len(files)), len(files)
}
