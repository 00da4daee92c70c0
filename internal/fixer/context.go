package fixer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// FixContext is everything the rules need to know about a repository.
type FixContext struct {
	Root        string
	ReadmePath  string
	Sections    []string
	ProjectName string
	Description string

	// ExistingReadme is the current README text, empty when absent.
	ExistingReadme string

	// PackageName is the distribution name from pyproject.toml, if any.
	PackageName string

	// LicenseName is the first non-empty line of the LICENSE file, if any.
	LicenseName string

	HasContributing bool
	HasTests        bool
	TestCommand     string
}

// BuildFixContext inspects the repository at root.
func BuildFixContext(root string, cfg *config.Config) (*FixContext, error) {
	readmePath := filepath.Join(root, cfg.Docs.ReadmeFile)
	existing, err := os.ReadFile(readmePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", readmePath, err)
	}

	ctx := &FixContext{
		Root:           root,
		ReadmePath:     readmePath,
		Sections:       cfg.Docs.Sections,
		ProjectName:    filepath.Base(root),
		ExistingReadme: string(existing),
		LicenseName:    firstLine(filepath.Join(root, "LICENSE")),
		TestCommand:    testCommand(cfg.Tests.RunCommand),
	}
	if pf, ok := metrics.ReadPyproject(root); ok && pf.Project.Name != "" {
		ctx.PackageName = pf.Project.Name
		ctx.ProjectName = pf.Project.Name
		ctx.Description = pf.Project.Description
	}
	for _, name := range []string{"CONTRIBUTING.md", "CONTRIBUTING.rst", ".github/CONTRIBUTING.md"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(name))); err == nil {
			ctx.HasContributing = true
			break
		}
	}
	for _, dir := range cfg.Tests.TestDirs {
		if info, err := os.Stat(filepath.Join(root, dir)); err == nil && info.IsDir() {
			ctx.HasTests = true
			break
		}
	}
	return ctx, nil
}

// hasSection uses the same case-insensitive substring match as the docs
// metric, so an applied fix always raises the README score.
func (c *FixContext) hasSection(section string) bool {
	return strings.Contains(strings.ToLower(c.ExistingReadme), strings.ToLower(section))
}

// testCommand strips the coverage wrapper from the configured run command:
// "coverage run -m pytest" becomes "pytest".
func testCommand(run []string) string {
	if len(run) >= 4 && run[0] == "coverage" && run[1] == "run" && run[2] == "-m" {
		return strings.Join(run[3:], " ")
	}
	if len(run) == 0 {
		return "pytest"
	}
	return strings.Join(run, " ")
}

func firstLine(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
