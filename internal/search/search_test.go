package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slmtnm/blobnav/internal/entry"
)

func items(names ...string) []entry.Item {
	out := make([]entry.Item, len(names))
	for i, n := range names {
		out[i] = entry.Item{Name: n}
	}
	return out
}

func itemNames(list []entry.Item) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.Name
	}
	return out
}

func TestFilterItems_EmptyQueryIsIdentity(t *testing.T) {
	all := items("b", "a", "c")
	assert.Equal(t, all, FilterItems(all, ""))
}

func TestFilterItems_Idempotent(t *testing.T) {
	all := items("alpha", "Logfile", "logo", "catalog", "x")
	for _, q := range []string{"log", "LOG", "o", "zzz", ""} {
		once := FilterItems(all, q)
		assert.Equal(t, once, FilterItems(once, q), "query %q", q)
	}
}

func TestFilterItems_CaseInsensitiveOrderPreserving(t *testing.T) {
	all := items("README.md", "alpha", "readme.txt", "Read")
	assert.Equal(t, []string{"README.md", "readme.txt"}, itemNames(FilterItems(all, "ReadMe")))
}

func TestFilterItems_MatchesBareNameOnly(t *testing.T) {
	all := []entry.Item{{Name: "reports", Kind: entry.Folder}, {Name: "a.txt"}}
	// "folder"/"file" are kinds, not part of the name
	assert.Empty(t, FilterItems(all, "folder"))
	assert.Empty(t, FilterItems(all, "file"))
}

func TestFiles_TypeCancelConfirm(t *testing.T) {
	baseline := items("alpha", "logfile", "logo")

	s := StartFiles(baseline)
	assert.Equal(t, "", s.Query())

	var visible []entry.Item
	for _, r := range "log" {
		visible = s.Type(string(r))
	}
	assert.Equal(t, []string{"logfile", "logo"}, itemNames(visible))

	// cancel restores the snapshot verbatim
	assert.Equal(t, baseline, s.All)

	// backspace funnels through the same filter path
	visible = s.Backspace()
	assert.Equal(t, "lo", s.Query())
	assert.Equal(t, []string{"logfile", "logo"}, itemNames(visible))
	visible = s.Backspace()
	visible = s.Backspace()
	assert.Equal(t, baseline, visible)
	assert.Equal(t, baseline, s.Backspace())
}

func TestFiles_SnapshotIsIndependent(t *testing.T) {
	baseline := items("a", "b")
	s := StartFiles(baseline)
	baseline[0].Name = "mutated"
	assert.Equal(t, "a", s.All[0].Name)
}

func TestFiles_Reset(t *testing.T) {
	s := StartFiles(items("alpha", "logo"))
	s.Type("lo")
	visible := s.Reset(items("catalog", "zeta", "logs"))
	assert.Equal(t, []string{"catalog", "logs"}, itemNames(visible))
}

func TestContainers(t *testing.T) {
	all := entry.Containers([]string{"demo", "prod-logs", "Demo-archive"})
	s := StartContainers(all)

	visible := s.Type("DEMO")
	assert.Equal(t, []entry.Container{{Name: "demo"}, {Name: "Demo-archive"}}, visible)

	visible = s.Backspace()
	assert.Equal(t, "DEM", s.Query())
	assert.Len(t, visible, 2)
	assert.Equal(t, all, s.All)
}

func TestBackspace_MultiByte(t *testing.T) {
	s := StartContainers(nil)
	s.Type("日本")
	s.Backspace()
	assert.Equal(t, "日", s.Query())
}
