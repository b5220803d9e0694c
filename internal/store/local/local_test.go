package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/blobnav/internal/store"
)

func write(t *testing.T, root, rel, data string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func setup(t *testing.T) (string, store.Store) {
	t.Helper()
	root := t.TempDir()
	write(t, root, "demo/logs/a.txt", "aaa")
	write(t, root, "demo/logs/b.txt", "bb")
	write(t, root, "demo/logs/2024/c.txt", "c")
	write(t, root, "demo/logs.txt", "top")
	write(t, root, "other/x", "x")
	require.NoError(t, os.Mkdir(filepath.Join(root, ".hidden"), 0o755))

	dir, err := New(root)
	require.NoError(t, err)
	st, err := dir.Open(context.Background(), "demo")
	require.NoError(t, err)
	return root, st
}

func TestDirectory(t *testing.T) {
	root, _ := setup(t)
	dir, err := New(root)
	require.NoError(t, err)

	names, err := store.ListAllContainers(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "other"}, names)

	_, err = dir.Open(context.Background(), "missing")
	assert.True(t, store.IsContainerNotFound(err))

	_, err = dir.Open(context.Background(), "../etc")
	assert.True(t, store.IsContainerNotFound(err))
}

func TestNew_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestListWithDelimiter(t *testing.T) {
	_, st := setup(t)

	root, err := st.ListWithDelimiter(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/"}, root.Prefixes)
	require.Len(t, root.Objects, 1)
	assert.Equal(t, "logs.txt", root.Objects[0].Key)

	logs, err := st.ListWithDelimiter(context.Background(), "logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/2024/"}, logs.Prefixes)
	require.Len(t, logs.Objects, 2)
	assert.Equal(t, "logs/a.txt", logs.Objects[0].Key)
	assert.Equal(t, int64(3), logs.Objects[0].Size)

	missing, err := st.ListWithDelimiter(context.Background(), "nope/")
	require.NoError(t, err)
	assert.Empty(t, missing.Prefixes)
	assert.Empty(t, missing.Objects)
}

func TestList_RecursiveByteOrder(t *testing.T) {
	_, st := setup(t)

	objects, err := store.Collect(st.List(context.Background(), "logs/"))
	require.NoError(t, err)

	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key
	}
	assert.Equal(t, []string{"logs/2024/c.txt", "logs/a.txt", "logs/b.txt"}, keys)

	all, err := store.Collect(st.List(context.Background(), ""))
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := store.Collect(st.List(context.Background(), "nope/"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAndRange(t *testing.T) {
	_, st := setup(t)

	body, err := st.Get(context.Background(), "logs/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "aaa", string(data))

	part, err := st.GetRange(context.Background(), "logs.txt", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "op", string(part))

	past, err := st.GetRange(context.Background(), "logs.txt", 10, 10)
	require.NoError(t, err)
	assert.Empty(t, past)

	_, err = st.Get(context.Background(), "logs/")
	assert.True(t, store.IsNotFound(err))

	_, err = st.Get(context.Background(), "missing.txt")
	assert.True(t, store.IsNotFound(err))
}

func TestHead(t *testing.T) {
	_, st := setup(t)

	meta, err := st.Head(context.Background(), "logs/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "logs/b.txt", meta.Key)
	assert.Equal(t, int64(2), meta.Size)
	assert.NotEmpty(t, meta.ETag)
}

func TestCopyAndDelete(t *testing.T) {
	root, st := setup(t)
	ctx := context.Background()

	require.NoError(t, st.Copy(ctx, "logs/2024/c.txt", "backup/2024/c.txt"))
	data, err := os.ReadFile(filepath.Join(root, "demo", "backup", "2024", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))

	require.NoError(t, st.Delete(ctx, "backup/2024/c.txt"))
	_, err = os.Stat(filepath.Join(root, "demo", "backup"))
	assert.True(t, os.IsNotExist(err), "empty parents are pruned")

	_, err = os.Stat(filepath.Join(root, "demo"))
	assert.NoError(t, err, "container directory is kept")

	err = st.Delete(ctx, "backup/2024/c.txt")
	assert.True(t, store.IsNotFound(err))
}

func TestKeyTraversalRejected(t *testing.T) {
	_, st := setup(t)

	_, err := st.Get(context.Background(), "../other/x")
	assert.Error(t, err)
}
