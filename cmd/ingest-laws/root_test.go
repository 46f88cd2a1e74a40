package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectLawFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ordinance.txt"), "x")
	writeFile(t, filepath.Join(dir, "finance-act.PDF"), "x")
	writeFile(t, filepath.Join(dir, "notes.md"), "x")
	writeFile(t, filepath.Join(dir, "laws", "sro-2024.txt"), "x")
	writeFile(t, filepath.Join(dir, "laws", "deep", "skip.txt"), "x")

	files, err := collectLawFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "finance-act.PDF"),
		filepath.Join(dir, "laws", "sro-2024.txt"),
		filepath.Join(dir, "ordinance.txt"),
	}, files)
}

func TestCollectLawFiles_MissingDir(t *testing.T) {
	_, err := collectLawFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	files, err := collectLawFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "income-tax-ordinance", sourceName("/data/laws/income-tax-ordinance.txt"))
	assert.Equal(t, "a.b", sourceName("a.b.pdf"))
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("DATABASE_URL", "postgres://tax:hunter2@db:5432/tax")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config"})
	require.NoError(t, rootCmd.Execute())

	assert.NotContains(t, out.String(), "sk-secret")
	assert.NotContains(t, out.String(), "hunter2")
	assert.Contains(t, out.String(), "model_name: gpt-4o-mini")
}

func TestConfigCommand_UsesConfigFileEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxlaw.yaml")
	writeFile(t, path, "model_name: gpt-4o\nchunk_size: 800\nchunk_overlap: 200\n")
	t.Setenv("CONFIG_FILE", path)
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "model_name: gpt-4o\n")
	assert.Contains(t, out.String(), "size: 800")
}

func TestRunCommand_RejectsMemoryIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ordinance.txt"), "Section 44 income tax rebate on investment")
	t.Setenv("VECTOR_INDEX", "memory")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "tax.db"))
	t.Setenv("STORAGE_LOCAL_PATH", filepath.Join(dir, "files"))

	rootCmd.SetArgs([]string{"run", "--dir", dir})
	err := rootCmd.Execute()
	require.ErrorIs(t, err, errMemoryIndex)
	assert.Contains(t, err.Error(), "milvus or pgvector")

	_, statErr := os.Stat(filepath.Join(dir, "tax.db"))
	assert.True(t, os.IsNotExist(statErr), "nothing is opened before the index check")
}
