// Package storetest provides an in-memory store for tests.
package storetest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"iter"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slmtnm/blobnav/internal/store"
)

// Op names a store call for failure injection.
type Op string

const (
	OpListContainers Op = "ListContainers"
	OpOpen           Op = "Open"
	OpListDelimiter  Op = "ListWithDelimiter"
	OpList           Op = "List"
	OpGet            Op = "Get"
	OpHead           Op = "Head"
	OpCopy           Op = "Copy"
	OpDelete         Op = "Delete"
)

type object struct {
	data     []byte
	modified time.Time
}

// Memory is a thread-safe in-memory Directory. Containers are created on
// first Put.
type Memory struct {
	// PageSize limits container names per ListContainersPage call; zero
	// returns everything in one page.
	PageSize int

	mu         sync.Mutex
	containers map[string]map[string]object
	failures   map[failureKey]error
	calls      []Call
	now        time.Time
}

type failureKey struct {
	op  Op
	key string
}

// Call records a mutating or listing call made against the store.
type Call struct {
	Op        Op
	Container string
	Key       string
	Dst       string
}

// NewMemory returns an empty store whose clock starts at a fixed instant.
func NewMemory() *Memory {
	return &Memory{
		containers: make(map[string]map[string]object),
		failures:   make(map[failureKey]error),
		now:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// CreateContainer registers an empty container.
func (m *Memory) CreateContainer(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[name]; !ok {
		m.containers[name] = make(map[string]object)
	}
}

// Put stores data under key. Each Put advances the clock by one minute so
// modification times are distinct and increasing.
func (m *Memory) Put(container, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.containers[container]
	if !ok {
		c = make(map[string]object)
		m.containers[container] = c
	}
	m.now = m.now.Add(time.Minute)
	c[key] = object{data: append([]byte(nil), data...), modified: m.now}
}

// Fail makes op fail with err whenever it targets key. For OpList and
// OpListDelimiter the key is the prefix; for OpCopy it is the source key;
// for OpListContainers it is the continuation token; for OpOpen it is the
// container name.
func (m *Memory) Fail(op Op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[failureKey{op: op, key: key}] = err
}

// Keys returns the sorted keys of a container.
func (m *Memory) Keys(container string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.containers[container]))
	for k := range m.containers[container] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns every recorded call in order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Memory) failure(op Op, key string) error {
	return m.failures[failureKey{op: op, key: key}]
}

func (m *Memory) wrap(op Op, container, key string, err error) error {
	return &store.Error{Op: string(op), Backend: store.BackendMem, Container: container, Key: key, Err: err}
}

// ListContainersPage implements store.Directory.
func (m *Memory) ListContainersPage(_ context.Context, continuation string) (*store.ContainerPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(OpListContainers, continuation); err != nil {
		return nil, m.wrap(OpListContainers, "", "", err)
	}

	names := make([]string, 0, len(m.containers))
	for name := range m.containers {
		names = append(names, name)
	}
	sort.Strings(names)

	start := 0
	if continuation != "" {
		n, err := strconv.Atoi(continuation)
		if err != nil {
			return nil, m.wrap(OpListContainers, "", "", err)
		}
		start = n
	}
	if start > len(names) {
		start = len(names)
	}

	end := len(names)
	if m.PageSize > 0 && start+m.PageSize < end {
		end = start + m.PageSize
	}

	page := &store.ContainerPage{Names: names[start:end]}
	if end < len(names) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

// Open implements store.Directory.
func (m *Memory) Open(_ context.Context, container string) (store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(OpOpen, container); err != nil {
		return nil, m.wrap(OpOpen, container, "", err)
	}
	if _, ok := m.containers[container]; !ok {
		return nil, m.wrap(OpOpen, container, "", store.ErrContainerNotFound)
	}
	return &Bucket{mem: m, name: container}, nil
}

// Bucket is a Memory store bound to one container.
type Bucket struct {
	mem  *Memory
	name string
}

var _ store.Store = (*Bucket)(nil)

func (b *Bucket) record(c Call) {
	c.Container = b.name
	b.mem.calls = append(b.mem.calls, c)
}

func (b *Bucket) sortedKeys() []string {
	c := b.mem.containers[b.name]
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Bucket) meta(key string, obj object) store.ObjectMeta {
	sum := md5.Sum(obj.data)
	return store.ObjectMeta{
		Key:          key,
		Size:         int64(len(obj.data)),
		LastModified: obj.modified,
		ETag:         hex.EncodeToString(sum[:]),
	}
}

// ListWithDelimiter implements store.Store.
func (b *Bucket) ListWithDelimiter(_ context.Context, prefix string) (*store.Listing, error) {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpListDelimiter, Key: prefix})
	if err := b.mem.failure(OpListDelimiter, prefix); err != nil {
		return nil, b.mem.wrap(OpListDelimiter, b.name, prefix, err)
	}

	listing := &store.Listing{}
	seen := make(map[string]struct{})
	for _, key := range b.sortedKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, store.Delimiter); i >= 0 {
			p := prefix + rest[:i+1]
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				listing.Prefixes = append(listing.Prefixes, p)
			}
			continue
		}
		listing.Objects = append(listing.Objects, b.meta(key, b.mem.containers[b.name][key]))
	}
	return listing, nil
}

// List implements store.Store.
func (b *Bucket) List(_ context.Context, prefix string) iter.Seq2[store.ObjectMeta, error] {
	b.mem.mu.Lock()
	b.record(Call{Op: OpList, Key: prefix})
	if err := b.mem.failure(OpList, prefix); err != nil {
		b.mem.mu.Unlock()
		return store.Fail(b.mem.wrap(OpList, b.name, prefix, err))
	}
	var metas []store.ObjectMeta
	for _, key := range b.sortedKeys() {
		if strings.HasPrefix(key, prefix) {
			metas = append(metas, b.meta(key, b.mem.containers[b.name][key]))
		}
	}
	b.mem.mu.Unlock()

	return func(yield func(store.ObjectMeta, error) bool) {
		for _, meta := range metas {
			if !yield(meta, nil) {
				return
			}
		}
	}
}

func (b *Bucket) lookup(op Op, key string) (object, error) {
	if err := b.mem.failure(op, key); err != nil {
		return object{}, b.mem.wrap(op, b.name, key, err)
	}
	obj, ok := b.mem.containers[b.name][key]
	if !ok {
		return object{}, b.mem.wrap(op, b.name, key, store.ErrNotFound)
	}
	return obj, nil
}

// Get implements store.Store.
func (b *Bucket) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpGet, Key: key})
	obj, err := b.lookup(OpGet, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// GetRange implements store.Store.
func (b *Bucket) GetRange(_ context.Context, key string, offset, length int64) ([]byte, error) {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpGet, Key: key})
	obj, err := b.lookup(OpGet, key)
	if err != nil {
		return nil, err
	}
	size := int64(len(obj.data))
	if offset >= size {
		return []byte{}, nil
	}
	end := offset + length
	if end > size {
		end = size
	}
	return append([]byte(nil), obj.data[offset:end]...), nil
}

// Head implements store.Store.
func (b *Bucket) Head(_ context.Context, key string) (*store.ObjectMeta, error) {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpHead, Key: key})
	obj, err := b.lookup(OpHead, key)
	if err != nil {
		return nil, err
	}
	meta := b.meta(key, obj)
	return &meta, nil
}

// Copy implements store.Store.
func (b *Bucket) Copy(_ context.Context, src, dst string) error {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpCopy, Key: src, Dst: dst})
	obj, err := b.lookup(OpCopy, src)
	if err != nil {
		return err
	}
	b.mem.now = b.mem.now.Add(time.Minute)
	b.mem.containers[b.name][dst] = object{data: append([]byte(nil), obj.data...), modified: b.mem.now}
	return nil
}

// Delete implements store.Store.
func (b *Bucket) Delete(_ context.Context, key string) error {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()

	b.record(Call{Op: OpDelete, Key: key})
	if _, err := b.lookup(OpDelete, key); err != nil {
		return err
	}
	delete(b.mem.containers[b.name], key)
	return nil
}
