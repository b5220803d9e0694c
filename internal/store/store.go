// Package store defines the ports the browser consumes from object storage.
//
// A Directory enumerates containers (buckets) and binds a Store to one of
// them. A Store is scoped to a single container and addresses objects by key;
// "folders" are key prefixes ending in Delimiter and do not exist on their own.
package store

import (
	"context"
	"io"
	"iter"
	"time"
)

// Delimiter separates path segments inside object keys.
const Delimiter = "/"

// Store is the container-scoped blob store port.
//
// Implementations must be safe to share between the event loop and the
// command goroutines it spawns; the browser never calls a Store concurrently
// for the same operation.
type Store interface {
	// ListWithDelimiter returns the immediate child prefixes and objects under
	// prefix. An empty prefix lists the container root. All pages are
	// concatenated before returning.
	ListWithDelimiter(ctx context.Context, prefix string) (*Listing, error)

	// List streams every object whose key starts with prefix, recursively.
	// Iteration stops at the first error, which is yielded once.
	List(ctx context.Context, prefix string) iter.Seq2[ObjectMeta, error]

	// Get opens the object body for reading. Callers must close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// GetRange returns at most length bytes starting at offset.
	GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error)

	// Head returns metadata for a single object.
	// Returns ErrNotFound if the object does not exist.
	Head(ctx context.Context, key string) (*ObjectMeta, error)

	// Copy duplicates src to dst inside the container without reading the
	// data through the client.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes a single object.
	Delete(ctx context.Context, key string) error
}

// Directory is the account-level container listing port.
type Directory interface {
	// ListContainersPage returns one page of container names. An empty
	// continuation starts from the beginning; an empty Next in the result
	// means there are no more pages.
	ListContainersPage(ctx context.Context, continuation string) (*ContainerPage, error)

	// Open binds a fresh Store to the named container.
	Open(ctx context.Context, container string) (Store, error)
}

// Listing is the result of a delimiter listing.
type Listing struct {
	// Prefixes are the immediate child prefixes, each ending in Delimiter.
	Prefixes []string

	// Objects are the objects directly under the requested prefix.
	Objects []ObjectMeta
}

// ObjectMeta describes a single object.
type ObjectMeta struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ContainerPage is one page of a container enumeration.
type ContainerPage struct {
	Names []string
	Next  string
}
