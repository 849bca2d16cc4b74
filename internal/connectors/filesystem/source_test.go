package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew(t *testing.T) {
	t.Run("normalises extensions", func(t *testing.T) {
		source := New("/tmp/notes", []string{"MD", ".txt", " ", ""})

		require.NotNil(t, source)
		assert.Equal(t, "/tmp/notes", source.Root())
		assert.Len(t, source.extensions, 2)
		assert.Contains(t, source.extensions, ".md")
		assert.Contains(t, source.extensions, ".txt")
	})

	t.Run("implements DocumentSource interface", func(t *testing.T) {
		var _ driven.DocumentSource = New("/tmp", nil)
	})
}

// ==================== List Tests ====================

func TestSource_List(t *testing.T) {
	t.Run("lists notes sorted by path", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "b.md", "b")
		writeFile(t, root, "a.md", "a")
		writeFile(t, root, "projects/c.markdown", "c")

		docs, err := New(root, []string{".md", ".markdown"}).List(context.Background())
		require.NoError(t, err)

		require.Len(t, docs, 3)
		assert.Equal(t, "a.md", docs[0].Path)
		assert.Equal(t, "b.md", docs[1].Path)
		assert.Equal(t, "projects/c.markdown", docs[2].Path)
		assert.Equal(t, filepath.Join(root, "projects", "c.markdown"), docs[2].AbsPath)
		assert.False(t, docs[0].ModTime.IsZero())
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "visible.md", "v")
		writeFile(t, root, ".hidden.md", "h")
		writeFile(t, root, ".obsidian/workspace.md", "h")
		writeFile(t, root, "dir/.draft.md", "h")

		docs, err := New(root, nil).List(context.Background())
		require.NoError(t, err)

		require.Len(t, docs, 1)
		assert.Equal(t, "visible.md", docs[0].Path)
	})

	t.Run("filters by extension case-insensitively", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "note.MD", "n")
		writeFile(t, root, "image.png", "i")
		writeFile(t, root, "README", "r")

		docs, err := New(root, []string{".md"}).List(context.Background())
		require.NoError(t, err)

		require.Len(t, docs, 1)
		assert.Equal(t, "note.MD", docs[0].Path)
	})

	t.Run("empty extension list accepts every file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a.md", "a")
		writeFile(t, root, "README", "r")

		docs, err := New(root, nil).List(context.Background())
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("empty directory", func(t *testing.T) {
		docs, err := New(t.TempDir(), nil).List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("non-existent root", func(t *testing.T) {
		docs, err := New("/non/existent/path", nil).List(context.Background())

		assert.Error(t, err)
		assert.Nil(t, docs)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "file.md", "x")

		_, err := New(filepath.Join(root, "file.md"), nil).List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a.md", "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(root, nil).List(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSource_StableIDs(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "notes/task.md", "a")
	writeFile(t, rootB, "notes/task.md", "b")
	writeFile(t, rootB, "notes/other.md", "c")

	docsA, err := New(rootA, nil).List(context.Background())
	require.NoError(t, err)
	docsB, err := New(rootB, nil).List(context.Background())
	require.NoError(t, err)

	require.Len(t, docsA, 1)
	require.Len(t, docsB, 2)
	assert.Equal(t, DocumentID("notes/task.md"), docsA[0].ID)
	assert.Equal(t, docsA[0].ID, docsB[1].ID)
	assert.NotEqual(t, docsB[0].ID, docsB[1].ID)
}

// ==================== Read Tests ====================

func TestSource_Read(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "task.md", "---\nstatus: open\n---\n")
	source := New(root, nil)

	docs, err := source.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	t.Run("reads listed document", func(t *testing.T) {
		data, err := source.Read(context.Background(), docs[0])
		require.NoError(t, err)
		assert.Equal(t, "---\nstatus: open\n---\n", string(data))
	})

	t.Run("falls back to the relative path", func(t *testing.T) {
		doc := docs[0]
		doc.AbsPath = ""
		data, err := source.Read(context.Background(), doc)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("missing file", func(t *testing.T) {
		doc := docs[0]
		doc.Path = "gone.md"
		doc.AbsPath = filepath.Join(root, "gone.md")

		_, err := source.Read(context.Background(), doc)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), "gone.md")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := source.Read(ctx, docs[0])
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"hidden file", ".hidden", true},
		{"hidden file in path", "path/to/.hidden", true},
		{"hidden directory in path", "dir/.git/config", true},
		{"absolute hidden directory", "/home/user/.ssh/id_rsa", true},
		{"multiple hidden components", ".config/.cache/data", true},

		{"plain file", "file.txt", false},
		{"nested file", "path/to/file.txt", false},
		{"dot in name", "file.hidden", false},
		{"dot in directory name", "directory.name/file", false},

		{"current directory", ".", false},
		{"parent directory", "..", false},
		{"dot components", "path/./file", false},
		{"parent components", "path/../file", false},
		{"empty", "", false},
		{"root", "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
