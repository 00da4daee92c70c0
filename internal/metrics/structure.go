package metrics

import (
	"context"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// StructureCollector scores the presence of expected top-level artifacts.
type StructureCollector struct {
	required []string
}

// NewStructureCollector creates a StructureCollector for the configured
// artifact list.
func NewStructureCollector(cfg config.Structure) *StructureCollector {
	return &StructureCollector{required: cfg.Required}
}

func (c *StructureCollector) Name() string { return NameStructure }

// Collect checks each required artifact. Absence lowers the value and is
// never an error.
func (c *StructureCollector) Collect(_ context.Context, root string) Result {
	present := 0
	missing := []string{}
	for _, name := range c.required {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(name))); err == nil {
			present++
		} else {
			missing = append(missing, name)
		}
	}

	ev := Evidence{
		"present":  present,
		"expected": len(c.required),
		"missing":  missing,
	}
	if pf, ok := ReadPyproject(root); ok {
		if pf.Project.Name != "" {
			ev["package_name"] = pf.Project.Name
		}
		if pf.Project.Version != "" {
			ev["package_version"] = pf.Project.Version
		}
	}

	value := 0.0
	if len(c.required) > 0 {
		value = float64(present) / float64(len(c.required))
	}
	return NewResult(value, ev)
}

// Pyproject holds the pyproject.toml fields repohealth reads.
type Pyproject struct {
	Project struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"project"`
}

// ReadPyproject parses pyproject.toml at root, if present and valid.
func ReadPyproject(root string) (Pyproject, bool) {
	var pf Pyproject
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return pf, false
	}
	if err := toml.Unmarshal(data, &pf); err != nil {
		return pf, false
	}
	return pf, true
}
