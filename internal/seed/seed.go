package seed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Category classifies a seed document by content kind. The category decides
// which prompt tables a conversation draws from.
type Category string

const (
	CategoryCode Category = "code"
	CategoryText Category = "text"
)

var codeExtensions = map[string]bool{
	".py": true, ".go": true, ".rs": true, ".tsx": true, ".ts": true,
	".js": true, ".sql": true, ".java": true, ".c": true, ".cpp": true, ".rb": true,
}

var textExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".html": true,
}

// Document is an immutable seed document. Conversations hold a read-only
// reference to it for the lifetime of the run.
type Document struct {
	Name     string
	Content  string
	Category Category
}

// Classify maps a file extension to a document category. The boolean is false
// for extensions that are not usable as seed material.
func Classify(ext string) (Category, bool) {
	ext = strings.ToLower(ext)
	if codeExtensions[ext] {
		return CategoryCode, true
	}
	if textExtensions[ext] {
		return CategoryText, true
	}
	return "", false
}

// Load reads all usable documents from dir in name order. Files with unknown
// extensions are skipped; unreadable files are logged and skipped. A missing
// directory or a directory with zero usable documents is a configuration error.
func Load(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("seed documents directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		cat, ok := Classify(filepath.Ext(name))
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("skipping unreadable seed document", "file", name, "error", err)
			continue
		}
		docs = append(docs, Document{Name: name, Content: string(content), Category: cat})
		slog.Info("loaded seed document", "file", name, "category", cat, "chars", len(content))
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no usable seed documents in %s", dir)
	}

	var code, text int
	for _, d := range docs {
		if d.Category == CategoryCode {
			code++
		} else {
			text++
		}
	}
	slog.Info("seed documents loaded", "total", len(docs), "code", code, "text", text)
	return docs, nil
}
