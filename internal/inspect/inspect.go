// Package inspect computes the on-demand metadata shown in the info popup.
// Nothing is cached; every call goes to the store.
package inspect

import (
	"context"
	"fmt"
	"time"

	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/store"
)

// Info is either *FileInfo or *FolderInfo.
type Info interface {
	DisplayName() string
	isInfo()
}

// FileInfo is the metadata of a single object.
type FileInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
	ETag         string
}

// FolderInfo aggregates every object under a prefix.
type FolderInfo struct {
	Name      string
	BlobCount int
	TotalSize int64
}

func (*FileInfo) isInfo()   {}
func (*FolderInfo) isInfo() {}

func (i *FileInfo) DisplayName() string   { return i.Name }
func (i *FolderInfo) DisplayName() string { return i.Name }

// File issues a single head call for key.
func File(ctx context.Context, st store.Store, key string) (*FileInfo, error) {
	meta, err := st.Head(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob properties: %w", err)
	}
	return &FileInfo{
		Name:         entry.Base(key),
		Size:         meta.Size,
		LastModified: meta.LastModified,
		ETag:         meta.ETag,
	}, nil
}

// Folder lists everything under prefix and totals count and size.
func Folder(ctx context.Context, st store.Store, prefix string) (*FolderInfo, error) {
	info := &FolderInfo{Name: entry.Base(prefix)}
	for obj, err := range st.List(ctx, entry.AsFolder(prefix)) {
		if err != nil {
			return nil, fmt.Errorf("failed to list folder contents: %w", err)
		}
		info.BlobCount++
		info.TotalSize += obj.Size
	}
	return info, nil
}

// Item dispatches to File or Folder based on the entry kind.
func Item(ctx context.Context, st store.Store, path string, item entry.Item) (Info, error) {
	if item.IsFolder() {
		return Folder(ctx, st, item.Key(path))
	}
	return File(ctx, st, item.Key(path))
}
