package entry

import (
	"strings"

	"github.com/slmtnm/blobnav/internal/store"
)

// Enter returns the prefix for the folder name beneath path. The root path
// is "" and every other path ends with the delimiter.
func Enter(path, name string) string {
	if path == "" {
		return name + store.Delimiter
	}
	if !strings.HasSuffix(path, store.Delimiter) {
		path += store.Delimiter
	}
	return path + name + store.Delimiter
}

// Parent returns the prefix one level above path, or "" at the top.
func Parent(path string) string {
	trimmed := strings.TrimSuffix(path, store.Delimiter)
	if i := strings.LastIndex(trimmed, store.Delimiter); i >= 0 {
		return trimmed[:i+1]
	}
	return ""
}

// Base returns the last segment of a key or prefix, ignoring a trailing
// delimiter.
func Base(key string) string {
	trimmed := strings.TrimSuffix(key, store.Delimiter)
	if i := strings.LastIndex(trimmed, store.Delimiter); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// AsFolder normalizes a prefix so it ends with the delimiter.
func AsFolder(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, store.Delimiter) {
		return prefix
	}
	return prefix + store.Delimiter
}
