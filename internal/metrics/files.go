package metrics

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// FileSet selects the source files of a repository.
type FileSet struct {
	Extensions []string
	SkipDirs   []string
}

// Walk returns the source files under root, sorted. Unreadable entries are
// skipped.
func (fset FileSet) Walk(root string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && slices.Contains(fset.SkipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if fset.matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func (fset FileSet) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range fset.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// countLines returns the number of lines in path, counting a trailing line
// without a newline.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n, nil
}

// readHead returns the first n characters of path. Invalid UTF-8 bytes
// count as one character each.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := io.ReadAll(io.LimitReader(f, int64(n)*utf8.UTFMax))
	if err != nil {
		return nil, err
	}
	end := 0
	for chars := 0; chars < n && end < len(buf); chars++ {
		_, size := utf8.DecodeRune(buf[end:])
		end += size
	}
	return buf[:end], nil
}

// relPath reports path relative to root for evidence, falling back to path.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
