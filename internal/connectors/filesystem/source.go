package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// documentNamespace seeds the name-based UUIDs used as document IDs.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/notewatch/document"))

// Source lists notes under a root directory.
type Source struct {
	rootPath   string
	extensions map[string]struct{}
}

// New creates a source rooted at rootPath. Only files whose extension is in
// extensions are listed; an empty list accepts every file.
func New(rootPath string, extensions []string) *Source {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return &Source{rootPath: rootPath, extensions: exts}
}

// Root returns the watched directory.
func (s *Source) Root() string {
	return s.rootPath
}

// DocumentID returns the stable ID for a slash-separated relative path.
func DocumentID(relPath string) string {
	return uuid.NewSHA1(documentNamespace, []byte(relPath)).String()
}

// List walks the tree and returns every note sorted by path.
// Unreadable subdirectories are skipped; an unreadable root is an error.
func (s *Source) List(ctx context.Context) ([]domain.Document, error) {
	if err := checkRoot(s.rootPath); err != nil {
		return nil, err
	}

	var docs []domain.Document
	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.rootPath {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.rootPath, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.accepts(path) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			// Removed between readdir and stat.
			return nil
		}

		rel = filepath.ToSlash(rel)
		docs = append(docs, domain.Document{
			ID:      DocumentID(rel),
			Path:    rel,
			AbsPath: path,
			ModTime: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.rootPath, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read returns the contents of a listed note.
func (s *Source) Read(ctx context.Context, doc domain.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := doc.AbsPath
	if path == "" {
		path = filepath.Join(s.rootPath, filepath.FromSlash(doc.Path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Path, err)
	}
	return data, nil
}

// accepts reports whether path has a tracked extension.
func (s *Source) accepts(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func checkRoot(rootPath string) error {
	info, err := os.Stat(rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("root path error: %s does not exist", rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", rootPath)
	}
	return nil
}

// isHidden reports whether any component of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
