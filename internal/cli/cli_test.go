package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/blobnav/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// localRoot lays out two containers: demo with a logs folder and a readme,
// and an empty one.
func localRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "demo", "logs", "a.txt"), "aaa")
	writeFile(t, filepath.Join(root, "demo", "logs", "b.txt"), "bb")
	writeFile(t, filepath.Join(root, "demo", "readme.md"), "# demo")
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func localArgs(t *testing.T, root string, args ...string) []string {
	t.Helper()
	return append([]string{
		"--backend", "local",
		"--local-root", root,
		"--log-file", filepath.Join(t.TempDir(), "blobnav.log"),
	}, args...)
}

func TestLs_Containers(t *testing.T) {
	out, _, err := execute(t, localArgs(t, localRoot(t), "ls")...)
	require.NoError(t, err)
	assert.Equal(t, "demo\nempty\n", out)
}

func TestLs_Prefix(t *testing.T) {
	root := localRoot(t)

	out, _, err := execute(t, localArgs(t, root, "ls", "demo")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DIR")
	assert.True(t, strings.HasSuffix(lines[0], "logs/"))
	assert.Contains(t, lines[1], "6 B")
	assert.True(t, strings.HasSuffix(lines[1], "readme.md"))

	out, _, err = execute(t, localArgs(t, root, "ls", "demo", "logs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "logs/a.txt")
	assert.Contains(t, out, "logs/b.txt")
}

func TestLs_Recursive(t *testing.T) {
	out, _, err := execute(t, localArgs(t, localRoot(t), "ls", "-r", "demo")...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "logs/a.txt"))
	assert.True(t, strings.HasSuffix(lines[1], "logs/b.txt"))
	assert.True(t, strings.HasSuffix(lines[2], "readme.md"))
}

func TestLs_MissingContainer(t *testing.T) {
	_, _, err := execute(t, localArgs(t, localRoot(t), "ls", "nope")...)
	assert.Error(t, err)
}

func TestDownload_File(t *testing.T) {
	dest := t.TempDir()

	out, _, err := execute(t, localArgs(t, localRoot(t), "download", "-q", "demo", "readme.md", dest)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded 1/1 files (6 B)")

	data, err := os.ReadFile(filepath.Join(dest, "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo", string(data))
}

func TestDownload_Folder(t *testing.T) {
	dest := t.TempDir()

	out, _, err := execute(t, localArgs(t, localRoot(t), "download", "demo", "logs", dest)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded 2/2 files")

	for name, want := range map[string]string{"a.txt": "aaa", "b.txt": "bb"} {
		data, err := os.ReadFile(filepath.Join(dest, "logs", name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestDownload_DefaultDestination(t *testing.T) {
	dest := t.TempDir()

	_, _, err := execute(t, localArgs(t, localRoot(t), "--download-dir", dest, "download", "-q", "demo", "logs/")...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "logs", "a.txt"))
}

func TestMissingAzureCredentials(t *testing.T) {
	t.Setenv(config.EnvAzureAccount, "")
	t.Setenv(config.EnvAzureAccessKey, "")
	t.Setenv("BLOBNAV_BACKEND", "")

	_, _, err := execute(t, "--log-file", filepath.Join(t.TempDir(), "blobnav.log"), "ls")

	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.EnvAzureAccount, cfgErr.Env)
}

func TestBrowserNeedsTerminal(t *testing.T) {
	_, _, err := execute(t, localArgs(t, localRoot(t))...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}
