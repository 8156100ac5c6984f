package repository

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, location, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
	require.NoError(t, os.WriteFile(location, []byte(content), 0o644))
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return filepath.ToSlash(root)
}

func TestDecodeConfig(t *testing.T) {
	var testCases = []struct {
		description string
		data        string
		expect      map[string]string
		expectErr   bool
	}{
		{description: "packages", data: `{"packages": {"backend": "*", "frontend": "1.2.0"}}`, expect: map[string]string{"backend": "*", "frontend": "1.2.0"}},
		{description: "empty packages", data: `{"packages": {}}`, expect: map[string]string{}},
		{description: "extra fields ignored", data: `{"packages": {"a": "*"}, "agents": ["claude"]}`, expect: map[string]string{"a": "*"}},
		{description: "missing packages", data: `{"agents": []}`, expectErr: true},
		{description: "null packages", data: `{"packages": null}`, expectErr: true},
		{description: "packages not an object", data: `{"packages": "backend"}`, expectErr: true},
		{description: "invalid json", data: `{"packages": {`, expectErr: true},
	}
	for _, testCase := range testCases {
		config, err := decodeConfig([]byte(testCase.data))
		if testCase.expectErr {
			assert.ErrorIs(t, err, ErrMalformedConfig, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.EqualValues(t, testCase.expect, config.Packages, testCase.description)
	}
}

func TestConfig_UnrecognizedVersions(t *testing.T) {
	config := &Config{Packages: map[string]string{"a": "*", "b": "1.0.0", "c": "v2.1.3", "d": "latest"}}
	assert.EqualValues(t, map[string]string{"d": "latest"}, config.unrecognizedVersions())
}

func TestRepository_ReadHierarchicalConfig(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root+"/packmind.json", `{"packages": {"shared": "*", "root-only": "*"}}`)
	writeFile(t, root+"/apps/api/packmind.json", `{"packages": {"shared": "1.0.0", "api": "*"}}`)
	require.NoError(t, os.MkdirAll(root+"/apps/api/src", 0o755))

	repo := New()
	config, err := repo.ReadHierarchicalConfig(context.Background(), root+"/apps/api/src", root)
	require.NoError(t, err)
	assert.True(t, config.HasConfigs)
	assert.EqualValues(t, map[string]string{"shared": "1.0.0", "api": "*", "root-only": "*"}, config.Packages)
	assert.EqualValues(t, []string{root + "/apps/api/packmind.json", root + "/packmind.json"}, config.ConfigPaths)

	config, err = repo.ReadHierarchicalConfig(context.Background(), root+"/apps/api/src", root+"/apps/api")
	require.NoError(t, err)
	assert.EqualValues(t, map[string]string{"shared": "1.0.0", "api": "*"}, config.Packages)
}

func TestRepository_ReadHierarchicalConfig_NoConfig(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.MkdirAll(root+"/a/b", 0o755))
	config, err := New().ReadHierarchicalConfig(context.Background(), root+"/a/b", root)
	require.NoError(t, err)
	assert.False(t, config.HasConfigs)
	assert.Empty(t, config.Packages)
	assert.Empty(t, config.ConfigPaths)
}

func TestRepository_FindAllConfigsInTree(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root+"/packmind.json", `{"packages": {"root": "*"}}`)
	writeFile(t, root+"/apps/web/packmind.json", `{"packages": {"web": "*"}}`)
	writeFile(t, root+"/apps/api/packmind.json", `{"packages": {"api": "*"}}`)
	writeFile(t, root+"/node_modules/lib/packmind.json", `{"packages": {"ignored": "*"}}`)
	writeFile(t, root+"/dist/packmind.json", `{"packages": {"ignored": "*"}}`)
	writeFile(t, root+"/libs/broken/packmind.json", `{"packages": 1}`)

	var testCases = []struct {
		description string
		start       string
		stop        string
		expectBase  string
		expect      []string
	}{
		{
			description: "from repository root",
			start:       root,
			stop:        root,
			expectBase:  root,
			expect:      []string{"/", "/apps/api", "/apps/web"},
		},
		{
			description: "from nested directory sees the whole tree",
			start:       root + "/apps/web",
			stop:        root,
			expectBase:  root,
			expect:      []string{"/", "/apps/api", "/apps/web"},
		},
		{
			description: "without stop uses start as base",
			start:       root + "/apps",
			expectBase:  root + "/apps",
			expect:      []string{"/api", "/web"},
		},
	}

	for _, testCase := range testCases {
		configs, err := New().FindAllConfigsInTree(context.Background(), testCase.start, testCase.stop)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectBase, configs.BasePath, testCase.description)
		var targets []string
		for _, config := range configs.Configs {
			targets = append(targets, config.TargetPath)
			assert.True(t, strings.HasPrefix(config.AbsoluteTargetPath, root), testCase.description)
		}
		if testCase.stop == "" {
			// configs above the base path keep their absolute path
			filtered := targets[:0]
			for _, target := range targets {
				if !strings.HasPrefix(target, root) {
					filtered = append(filtered, target)
				}
			}
			targets = filtered
		}
		assert.EqualValues(t, testCase.expect, targets, testCase.description)
		assert.True(t, configs.HasConfigs, testCase.description)
	}
}

func TestRepository_FindAllConfigsInTree_Packages(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root+"/packmind.json", `{"packages": {"backend": "*"}}`)
	writeFile(t, root+"/svc/packmind.json", `{"packages": {"backend": "*", "svc": "*"}}`)

	configs, err := New().FindAllConfigsInTree(context.Background(), root, root)
	require.NoError(t, err)
	require.Len(t, configs.Configs, 2)
	assert.Equal(t, root, configs.Configs[0].AbsoluteTargetPath)
	assert.EqualValues(t, map[string]string{"backend": "*"}, configs.Configs[0].Packages)
	assert.Equal(t, root+"/svc", configs.Configs[1].AbsoluteTargetPath)
	assert.EqualValues(t, map[string]string{"backend": "*", "svc": "*"}, configs.Configs[1].Packages)
}

func TestRepository_MalformedWarnsOnce(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root+"/packmind.json", `not json`)

	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buffer, &slog.HandlerOptions{Level: slog.LevelWarn}))
	repo := New(WithLogger(logger))
	for i := 0; i < 3; i++ {
		config, err := repo.ReadConfig(context.Background(), root)
		require.NoError(t, err)
		assert.Nil(t, config)
	}
	assert.Equal(t, 1, strings.Count(buffer.String(), "skipping malformed config file"))
}
