package listing_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lintexec/listing"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		location := filepath.Join(root, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
		require.NoError(t, os.WriteFile(location, []byte("content of "+file), 0o644))
	}
}

func relativePaths(root string, files []listing.FileResult) []string {
	var ret []string
	prefix := filepath.ToSlash(root) + "/"
	for _, file := range files {
		ret = append(ret, strings.TrimPrefix(file.Path, prefix))
	}
	return ret
}

func TestEnumerator_List(t *testing.T) {
	testCases := []struct {
		description string
		files       []string
		extensions  []string
		excludes    []string
		options     []listing.ListOption
		expected    []string
	}{
		{
			description: "filters by extension with dot",
			files:       []string{"file1.ts", "file2.js", "file3.txt", "subdir/file4.ts", "subdir/file5.md"},
			extensions:  []string{".ts", ".js"},
			expected:    []string{"file1.ts", "file2.js", "subdir/file4.ts"},
		},
		{
			description: "empty extensions match all files",
			files:       []string{"file1.ts", "file2.js", "subdir/file3.json"},
			expected:    []string{"file1.ts", "file2.js", "subdir/file3.json"},
		},
		{
			description: "extensions without dot",
			files:       []string{"file.ts", "file.js", "file.txt"},
			extensions:  []string{"ts", "js"},
			expected:    []string{"file.js", "file.ts"},
		},
		{
			description: "no match",
			files:       []string{"file.txt"},
			extensions:  []string{".ts"},
			expected:    nil,
		},
		{
			description: "deeply nested",
			files:       []string{"a/b/c/d/deep.ts"},
			extensions:  []string{".ts"},
			expected:    []string{"a/b/c/d/deep.ts"},
		},
		{
			description: "directory token excludes",
			files:       []string{"file.ts", "node_modules/module.ts", "dist/build.ts", "src/source.ts"},
			extensions:  []string{".ts"},
			excludes:    []string{"node_modules", "dist"},
			expected:    []string{"file.ts", "src/source.ts"},
		},
		{
			description: "glob excludes",
			files:       []string{"main.ts", "packages/pkg1/infra/db.ts", "packages/pkg2/infra/api.ts", "packages/pkg1/src/logic.ts"},
			extensions:  []string{".ts"},
			excludes:    []string{"packages/**/infra"},
			expected:    []string{"main.ts", "packages/pkg1/src/logic.ts"},
		},
		{
			description: "single star glob stays within a segment",
			files:       []string{"gen/a.gen.ts", "src/a.ts", "src/deep/b.gen.ts"},
			extensions:  []string{".ts"},
			excludes:    []string{"*.gen.ts"},
			expected:    []string{"src/a.ts"},
		},
		{
			description: "hidden files and directories skipped by default",
			files:       []string{"visible.ts", ".hidden.ts", ".git/objects/x.ts", "src/.cache/y.ts"},
			extensions:  []string{".ts"},
			expected:    []string{"visible.ts"},
		},
		{
			description: "hidden entries included when disabled",
			files:       []string{"visible.ts", ".hidden.ts", "src/.cache/y.ts"},
			extensions:  []string{".ts"},
			options:     []listing.ListOption{listing.WithSkipHidden(false)},
			expected:    []string{".hidden.ts", "src/.cache/y.ts", "visible.ts"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, testCase.files...)
			enumerator := listing.New()
			files, err := enumerator.List(context.Background(), root, testCase.extensions, testCase.excludes, testCase.options...)
			require.NoError(t, err)
			assert.ElementsMatch(t, testCase.expected, relativePaths(root, files))
			for _, file := range files {
				assert.True(t, filepath.IsAbs(filepath.FromSlash(file.Path)), file.Path)
			}
		})
	}
}

func TestEnumerator_List_NeverYieldsHiddenSegments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a/.b/c.ts", ".d/e.ts", "f/g/.h.ts", "ok/fine.ts")
	files, err := listing.New().List(context.Background(), root, nil, nil)
	require.NoError(t, err)
	for _, rel := range relativePaths(root, files) {
		for _, segment := range strings.Split(rel, "/") {
			assert.False(t, strings.HasPrefix(segment, "."), rel)
		}
	}
	assert.Equal(t, []string{"ok/fine.ts"}, relativePaths(root, files))
}

func TestEnumerator_List_EmptyDirectory(t *testing.T) {
	files, err := listing.New().List(context.Background(), t.TempDir(), []string{".ts"}, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestEnumerator_List_MissingDirectory(t *testing.T) {
	_, err := listing.New().List(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, nil)
	assert.Error(t, err)
}
