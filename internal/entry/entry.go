// Package entry holds the browser's list entries and the pure functions that
// order them and move between key prefixes.
package entry

import (
	"strings"
	"time"

	"github.com/slmtnm/blobnav/internal/store"
)

// Kind distinguishes objects from virtual folders.
type Kind int

const (
	File Kind = iota
	Folder
)

func (k Kind) String() string {
	if k == Folder {
		return "folder"
	}
	return "file"
}

// Item is one row of a listing. Items are created by a listing call and
// replaced wholesale on every refresh.
type Item struct {
	// Name is the bare last key segment, without any trailing delimiter.
	Name string
	Kind Kind

	// Size and LastModified are nil for folders and for backends that do not
	// report them.
	Size         *int64
	LastModified *time.Time

	// Created is never supplied by the stores; sorting by creation time falls
	// back to LastModified.
	Created *time.Time
}

// IsFolder reports whether the item is a virtual folder.
func (i Item) IsFolder() bool {
	return i.Kind == Folder
}

// Key returns the full object key (or prefix, for folders) of the item when
// listed under path.
func (i Item) Key(path string) string {
	if i.Kind == Folder {
		return path + i.Name + store.Delimiter
	}
	return path + i.Name
}

// Container is one entry of the container selection list.
type Container struct {
	Name string
}

// Containers converts names into container entries, preserving order.
func Containers(names []string) []Container {
	out := make([]Container, len(names))
	for i, n := range names {
		out[i] = Container{Name: n}
	}
	return out
}

// FromListing maps a delimiter listing onto items: folders from the common
// prefixes, files from the objects. Entries whose last segment is empty
// (folder marker objects) are skipped.
func FromListing(l *store.Listing) []Item {
	items := make([]Item, 0, len(l.Prefixes)+len(l.Objects))
	for _, p := range l.Prefixes {
		name := Base(p)
		if name == "" {
			continue
		}
		items = append(items, Item{Name: name, Kind: Folder})
	}
	for _, obj := range l.Objects {
		name := Base(obj.Key)
		if name == "" || strings.HasSuffix(obj.Key, store.Delimiter) {
			continue
		}
		size := obj.Size
		item := Item{Name: name, Kind: File, Size: &size}
		if !obj.LastModified.IsZero() {
			modified := obj.LastModified
			item.LastModified = &modified
		}
		items = append(items, item)
	}
	return items
}
