package entry

import (
	"sort"
	"time"
)

// Criteria selects the ordering applied within each kind.
type Criteria int

const (
	ByName Criteria = iota
	ByDateModified
	ByDateCreated
	BySize
)

func (c Criteria) String() string {
	switch c {
	case ByDateModified:
		return "date modified"
	case ByDateCreated:
		return "date created"
	case BySize:
		return "size"
	default:
		return "name"
	}
}

// Sort returns a sorted copy of items. Folders always come before files.
// Within a kind, names ascend byte-wise; dates and sizes descend with missing
// values last and name as the tie-breaker. The sort is stable.
func Sort(items []Item, c Criteria) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], c)
	})
	return out
}

func less(a, b Item, c Criteria) bool {
	if a.Kind != b.Kind {
		return a.Kind == Folder
	}

	switch c {
	case ByDateModified, ByDateCreated:
		ta, tb := modified(a, c), modified(b, c)
		switch {
		case ta != nil && tb != nil:
			if !ta.Equal(*tb) {
				return ta.After(*tb)
			}
		case ta != nil:
			return true
		case tb != nil:
			return false
		}
	case BySize:
		switch {
		case a.Size != nil && b.Size != nil:
			if *a.Size != *b.Size {
				return *a.Size > *b.Size
			}
		case a.Size != nil:
			return true
		case b.Size != nil:
			return false
		}
	}
	return a.Name < b.Name
}

// modified picks the timestamp a date criterion compares on. Creation time
// is preferred for ByDateCreated when a store ever supplies it.
func modified(i Item, c Criteria) *time.Time {
	if c == ByDateCreated && i.Created != nil {
		return i.Created
	}
	return i.LastModified
}
