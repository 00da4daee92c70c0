package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackwell-systems/repohealth/internal/config"
)

func TestDocsCollector_CombinesReadmeAndDocstrings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Demo\n\n## INSTALLATION\npip install demo\n\n## License\nMIT\n")
	writeFile(t, root, "a.py", `"""Module a."""`+"\n")
	writeFile(t, root, "b.py", "import os\n")

	r := NewDocsCollector(config.DefaultDocs, pyFiles).Collect(context.Background(), root)

	// 0.6*0.5 + 0.4*0.5
	assert.InDelta(t, 0.5, r.Value, 1e-9)
	assert.Equal(t, map[string]bool{
		"installation": true,
		"usage":        false,
		"license":      true,
		"contributing": false,
	}, r.Evidence["readme_sections"])
	assert.InDelta(t, 0.5, r.Evidence["docstring_ratio"], 1e-9)
	assert.Equal(t, 2, r.Evidence["source_files"])
}

func TestDocsCollector_MissingReadmeAndNoSources(t *testing.T) {
	r := NewDocsCollector(config.DefaultDocs, pyFiles).Collect(context.Background(), t.TempDir())
	assert.Equal(t, 0.0, r.Value)
	assert.Equal(t, 0, r.Evidence["source_files"])
}

func TestDocsCollector_DocstringOnlyCountsHead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "late.py", string(make([]byte, 300))+`"""too late"""`)
	writeFile(t, root, "single.py", "'''Single quotes.'''\n")

	r := NewDocsCollector(config.DefaultDocs, pyFiles).Collect(context.Background(), root)
	assert.InDelta(t, 0.5, r.Evidence["docstring_ratio"], 1e-9)
	assert.InDelta(t, 0.2, r.Value, 1e-9)
}

func TestDocsCollector_DocstringHeadIsCharacters(t *testing.T) {
	root := t.TempDir()
	// The delimiter starts at character 103 but byte 203.
	writeFile(t, root, "mod.py", "# "+strings.Repeat("é", 100)+"\n\"\"\"Module doc.\"\"\"\n")

	r := NewDocsCollector(config.DefaultDocs, pyFiles).Collect(context.Background(), root)
	assert.InDelta(t, 1.0, r.Evidence["docstring_ratio"], 1e-9)
}
