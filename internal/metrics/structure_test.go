package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/repohealth/internal/config"
)

func TestStructureCollector_CountsPresentArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# demo\n")
	writeFile(t, root, "LICENSE", "MIT License\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".github", "workflows"), 0o755))

	r := NewStructureCollector(config.DefaultStructure).Collect(context.Background(), root)

	assert.InDelta(t, 0.5, r.Value, 1e-9)
	assert.Equal(t, 3, r.Evidence["present"])
	assert.Equal(t, 6, r.Evidence["expected"])
	assert.Equal(t, []string{"src", "pyproject.toml", "setup.py"}, r.Evidence["missing"])
}

func TestStructureCollector_EmptyRequirementsScoreZero(t *testing.T) {
	r := NewStructureCollector(config.Structure{}).Collect(context.Background(), t.TempDir())
	assert.Equal(t, 0.0, r.Value)
	assert.Equal(t, 0, r.Evidence["expected"])
}

func TestStructureCollector_PyprojectEvidence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pyproject.toml", `
[project]
name = "widget"
version = "1.2.3"
description = "Widgets for everyone"
`)

	r := NewStructureCollector(config.Structure{Required: []string{"pyproject.toml"}}).Collect(context.Background(), root)
	assert.Equal(t, 1.0, r.Value)
	assert.Equal(t, "widget", r.Evidence["package_name"])
	assert.Equal(t, "1.2.3", r.Evidence["package_version"])

	pf, ok := ReadPyproject(root)
	require.True(t, ok)
	assert.Equal(t, "Widgets for everyone", pf.Project.Description)
}

func TestReadPyproject_InvalidToml(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pyproject.toml", "[project\nname=")
	_, ok := ReadPyproject(root)
	assert.False(t, ok)
}
