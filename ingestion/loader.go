package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultExtensions are the file extensions LoadDocuments reads when none
// are given.
var DefaultExtensions = []string{".md", ".txt", ".rst", ".org"}

// LoadDocuments reads every file under root whose extension is in exts
// (case-insensitive, DefaultExtensions when empty). Hidden files and
// directories are skipped, as are files that are not valid UTF-8.
// Document paths are relative to root and use forward slashes.
func LoadDocuments(root string, exts []string) ([]Document, error) {
	return LoadDocumentsFS(os.DirFS(root), ".", exts)
}

// LoadDocumentsFS is LoadDocuments over an fs.FS.
func LoadDocumentsFS(fsys fs.FS, root string, exts []string) ([]Document, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted[ext] = true
	}

	var docs []Document
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !wanted[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !utf8.Valid(content) {
			return nil
		}

		relPath := path
		if root != "." {
			if rel, err := filepath.Rel(root, path); err == nil {
				relPath = filepath.ToSlash(rel)
			}
		}

		docs = append(docs, Document{Path: relPath, Text: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
