// Package search implements the snapshot-and-filter overlay used for both
// the container list and the blob listing.
//
// Entering search snapshots the current list. Every query change re-derives
// the visible list from that snapshot; cancelling restores the snapshot and
// confirming keeps whatever is currently visible.
package search

import (
	"strings"

	"github.com/slmtnm/blobnav/internal/entry"
)

// State is the active overlay: nil, *Containers or *Files.
type State interface {
	// Query returns the current query text.
	Query() string
	isState()
}

// Containers is a search over the container list.
type Containers struct {
	query string
	All   []entry.Container
}

// Files is a search over the current blob listing.
type Files struct {
	query string
	All   []entry.Item
}

func (*Containers) isState() {}
func (*Files) isState()      {}

func (s *Containers) Query() string { return s.query }
func (s *Files) Query() string      { return s.query }

// StartContainers snapshots current and starts with an empty query.
func StartContainers(current []entry.Container) *Containers {
	return &Containers{All: append([]entry.Container(nil), current...)}
}

// StartFiles snapshots current and starts with an empty query.
func StartFiles(current []entry.Item) *Files {
	return &Files{All: append([]entry.Item(nil), current...)}
}

// Type appends text to the query and returns the re-filtered list.
func (s *Containers) Type(text string) []entry.Container {
	s.query += text
	return s.Filtered()
}

// Backspace drops the last rune of the query and returns the re-filtered list.
func (s *Containers) Backspace() []entry.Container {
	s.query = dropLast(s.query)
	return s.Filtered()
}

// Filtered applies the current query to the snapshot.
func (s *Containers) Filtered() []entry.Container {
	return FilterContainers(s.All, s.query)
}

// Type appends text to the query and returns the re-filtered list.
func (s *Files) Type(text string) []entry.Item {
	s.query += text
	return s.Filtered()
}

// Backspace drops the last rune of the query and returns the re-filtered list.
func (s *Files) Backspace() []entry.Item {
	s.query = dropLast(s.query)
	return s.Filtered()
}

// Filtered applies the current query to the snapshot.
func (s *Files) Filtered() []entry.Item {
	return FilterItems(s.All, s.query)
}

// Reset replaces the snapshot, e.g. after a refresh while searching, and
// returns the re-filtered list.
func (s *Files) Reset(all []entry.Item) []entry.Item {
	s.All = append([]entry.Item(nil), all...)
	return s.Filtered()
}

// FilterItems keeps the items whose bare name contains query, ignoring case,
// in their original order. An empty query returns a copy of items.
func FilterItems(items []entry.Item, query string) []entry.Item {
	if query == "" {
		return append([]entry.Item(nil), items...)
	}
	q := strings.ToLower(query)
	out := make([]entry.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

// FilterContainers is FilterItems for container entries.
func FilterContainers(containers []entry.Container, query string) []entry.Container {
	if query == "" {
		return append([]entry.Container(nil), containers...)
	}
	q := strings.ToLower(query)
	out := make([]entry.Container, 0, len(containers))
	for _, c := range containers {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

func dropLast(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(r[:len(r)-1])
}
