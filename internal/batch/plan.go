package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/store"
)

// ErrOutsideDest is recorded for a download item whose key would be written
// outside the destination directory.
var ErrOutsideDest = errors.New("path escapes the download directory")

// Engine plans jobs against one container-scoped store.
type Engine struct {
	store store.Store
	log   logging.Logger
}

// New returns an engine bound to st. A nil logger discards output.
func New(st store.Store, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{store: st, log: log}
}

// enumerate returns the keys a target covers: the key itself for a file,
// every object under the prefix for a folder.
func (e *Engine) enumerate(ctx context.Context, op Op, key string, isFolder bool) ([]store.ObjectMeta, error) {
	if !isFolder {
		return []store.ObjectMeta{{Key: key}}, nil
	}
	objects, err := store.Collect(e.store.List(ctx, entry.AsFolder(key)))
	if err != nil {
		e.log.Error("batch enumeration failed",
			logging.String("op", op.String()),
			logging.String("prefix", key),
			logging.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	return objects, nil
}

// Clone plans a server-side copy of src to dst. For folders every key under
// src is copied to dst with its relative suffix preserved.
func (e *Engine) Clone(ctx context.Context, src, dst string, isFolder bool) (*Job, error) {
	if isFolder {
		src, dst = entry.AsFolder(src), entry.AsFolder(dst)
	}
	objects, err := e.enumerate(ctx, OpClone, src, isFolder)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(objects))
	for i, obj := range objects {
		items[i] = Item{Src: obj.Key, Dst: dst + strings.TrimPrefix(obj.Key, src)}
	}
	if !isFolder {
		items[0].Dst = dst
	}

	return newJob(OpClone, items, func(ctx context.Context, it Item) (int64, error) {
		return 0, e.store.Copy(ctx, it.Src, it.Dst)
	}, e.log), nil
}

// Delete plans the removal of key, or of every key under it for folders.
func (e *Engine) Delete(ctx context.Context, key string, isFolder bool) (*Job, error) {
	objects, err := e.enumerate(ctx, OpDelete, key, isFolder)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(objects))
	for i, obj := range objects {
		items[i] = Item{Src: obj.Key}
	}

	return newJob(OpDelete, items, func(ctx context.Context, it Item) (int64, error) {
		return 0, e.store.Delete(ctx, it.Src)
	}, e.log), nil
}

// DownloadOptions configures a download job.
type DownloadOptions struct {
	// Dest is the local directory the target is written into.
	Dest string

	// Progress, if set, also receives every byte written.
	Progress io.Writer
}

// Download plans copying key into opts.Dest. A file lands at
// Dest/<name>; a folder is recreated as Dest/<folder>/<relative path>.
func (e *Engine) Download(ctx context.Context, key string, isFolder bool, opts DownloadOptions) (*Job, error) {
	if isFolder {
		key = entry.AsFolder(key)
	}
	objects, err := e.enumerate(ctx, OpDownload, key, isFolder)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(objects))
	for i, obj := range objects {
		if isFolder {
			rel := strings.TrimPrefix(obj.Key, key)
			items[i] = Item{Src: obj.Key, Dst: filepath.Join(opts.Dest, entry.Base(key), filepath.FromSlash(rel))}
			if strings.HasSuffix(obj.Key, store.Delimiter) {
				items[i].Dst += string(filepath.Separator)
			}
			continue
		}
		items[i] = Item{Src: obj.Key, Dst: filepath.Join(opts.Dest, entry.Base(obj.Key))}
	}

	job := newJob(OpDownload, items, func(ctx context.Context, it Item) (int64, error) {
		if err := within(opts.Dest, it.Dst); err != nil {
			return 0, err
		}
		return e.fetch(ctx, it, opts.Progress)
	}, e.log)

	if !isFolder {
		if meta, err := e.store.Head(ctx, key); err == nil {
			size := meta.Size
			job.progress.TotalBytes = &size
			e.log.Debug("download size known", logging.String("key", key), logging.Int64("bytes", size))
		} else {
			e.log.Debug("download size unknown", logging.String("key", key), logging.ErrorField(err))
		}
	}
	return job, nil
}

// within rejects local paths that resolve outside dest or to dest itself.
// Object keys may carry ".." segments.
func within(dest, path string) error {
	rel, err := filepath.Rel(filepath.Clean(dest), filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("invalid destination %s: %w", path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideDest, path)
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, it Item, progress io.Writer) (int64, error) {
	if strings.HasSuffix(it.Src, store.Delimiter) {
		return 0, os.MkdirAll(it.Dst, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(it.Dst), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	body, err := e.store.Get(ctx, it.Src)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	f, err := os.Create(it.Dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	var w io.Writer = f
	if progress != nil {
		w = io.MultiWriter(f, progress)
	}
	n, err := io.Copy(w, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}
