// Package local exposes a directory tree through the store ports. Every
// sub-directory of the root is a container and keys are slash-separated
// paths relative to it.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/slmtnm/blobnav/internal/store"
)

// Directory is a filesystem root whose sub-directories are containers.
type Directory struct {
	root string
}

var _ store.Directory = (*Directory)(nil)

// New returns a directory rooted at root, which must exist.
func New(root string) (*Directory, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}
	return &Directory{root: abs}, nil
}

// ListContainersPage implements store.Directory. All containers are
// returned in a single page.
func (d *Directory) ListContainersPage(_ context.Context, _ string) (*store.ContainerPage, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, wrapError("ListContainers", "", "", err)
	}
	page := &store.ContainerPage{}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			page.Names = append(page.Names, e.Name())
		}
	}
	return page, nil
}

// Open implements store.Directory.
func (d *Directory) Open(_ context.Context, container string) (store.Store, error) {
	if container == "" || strings.ContainsAny(container, `/\`) || container == ".." {
		return nil, wrapError("Open", container, "", store.ErrContainerNotFound)
	}
	dir := filepath.Join(d.root, container)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, wrapError("Open", container, "", store.ErrContainerNotFound)
	}
	return &Container{name: container, dir: dir}, nil
}

// Container is a store over one directory.
type Container struct {
	name string
	dir  string
}

var _ store.Store = (*Container)(nil)

// fullPath maps a key onto the filesystem, rejecting keys that would
// escape the container.
func (c *Container) fullPath(key string) (string, error) {
	clean := strings.TrimPrefix(filepath.Clean("/"+strings.TrimPrefix(key, "/")), "/")
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key path %q", key)
	}
	return filepath.Join(c.dir, filepath.FromSlash(clean)), nil
}

func (c *Container) key(path string) string {
	rel, err := filepath.Rel(c.dir, path)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

func meta(key string, info fs.FileInfo) store.ObjectMeta {
	return store.ObjectMeta{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ETag:         fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
	}
}

// ListWithDelimiter implements store.Store.
func (c *Container) ListWithDelimiter(_ context.Context, prefix string) (*store.Listing, error) {
	parent := prefix[:strings.LastIndex(prefix, store.Delimiter)+1]
	dir, err := c.fullPath(parent)
	if err != nil {
		return nil, wrapError("ListWithDelimiter", c.name, prefix, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &store.Listing{}, nil
		}
		return nil, wrapError("ListWithDelimiter", c.name, prefix, err)
	}

	listing := &store.Listing{}
	for _, e := range entries {
		key := parent + e.Name()
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if e.IsDir() {
			listing.Prefixes = append(listing.Prefixes, key+store.Delimiter)
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		listing.Objects = append(listing.Objects, meta(key, info))
	}
	return listing, nil
}

// List implements store.Store. Keys are yielded in byte order.
func (c *Container) List(_ context.Context, prefix string) iter.Seq2[store.ObjectMeta, error] {
	start, err := c.fullPath(prefix[:strings.LastIndex(prefix, store.Delimiter)+1])
	if err != nil {
		return store.Fail(wrapError("List", c.name, prefix, err))
	}

	var objects []store.ObjectMeta
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == start {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		key := c.key(path)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, meta(key, info))
		return nil
	})
	if err != nil {
		return store.Fail(wrapError("List", c.name, prefix, err))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	return func(yield func(store.ObjectMeta, error) bool) {
		for _, obj := range objects {
			if !yield(obj, nil) {
				return
			}
		}
	}
}

func (c *Container) open(op, key string) (*os.File, fs.FileInfo, error) {
	full, err := c.fullPath(key)
	if err != nil {
		return nil, nil, wrapError(op, c.name, key, err)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, nil, wrapError(op, c.name, key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, wrapError(op, c.name, key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, wrapError(op, c.name, key, store.ErrNotFound)
	}
	return f, info, nil
}

// Get implements store.Store.
func (c *Container) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, _, err := c.open("Get", key)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetRange implements store.Store.
func (c *Container) GetRange(_ context.Context, key string, offset, length int64) ([]byte, error) {
	f, info, err := c.open("GetRange", key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if offset >= info.Size() || length <= 0 {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.NewSectionReader(f, offset, length))
	if err != nil {
		return nil, wrapError("GetRange", c.name, key, err)
	}
	return data, nil
}

// Head implements store.Store.
func (c *Container) Head(_ context.Context, key string) (*store.ObjectMeta, error) {
	f, info, err := c.open("Head", key)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	m := meta(key, info)
	return &m, nil
}

// Copy implements store.Store.
func (c *Container) Copy(_ context.Context, src, dst string) error {
	in, _, err := c.open("Copy", src)
	if err != nil {
		return err
	}
	defer in.Close()

	full, err := c.fullPath(dst)
	if err != nil {
		return wrapError("Copy", c.name, dst, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return wrapError("Copy", c.name, dst, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".blobnav-copy-*")
	if err != nil {
		return wrapError("Copy", c.name, dst, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return wrapError("Copy", c.name, dst, err)
	}
	if err := tmp.Close(); err != nil {
		return wrapError("Copy", c.name, dst, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return wrapError("Copy", c.name, dst, err)
	}
	return nil
}

// Delete implements store.Store. Directories left empty by the removal
// are pruned so the folder disappears as it would in an object store.
func (c *Container) Delete(_ context.Context, key string) error {
	full, err := c.fullPath(key)
	if err != nil {
		return wrapError("Delete", c.name, key, err)
	}
	if err := os.Remove(full); err != nil {
		return wrapError("Delete", c.name, key, err)
	}
	for dir := filepath.Dir(full); dir != c.dir && strings.HasPrefix(dir, c.dir); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

func wrapError(op, container, key string, err error) error {
	wrapped := &store.Error{Op: op, Backend: store.BackendLocal, Container: container, Key: key, Err: err}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		wrapped.Err = store.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		wrapped.Err = store.ErrAccessDenied
	}
	return wrapped
}
