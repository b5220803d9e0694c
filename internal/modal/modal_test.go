package modal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slmtnm/blobnav/internal/entry"
)

func TestClone_FolderScenario(t *testing.T) {
	c := NewClone("", entry.Item{Name: "data", Kind: entry.Folder})

	assert.Equal(t, "data/", c.Input)
	assert.Equal(t, c.OriginalPath, c.Input)
	assert.True(t, c.IsFolder)
	assert.False(t, c.CanConfirm(), "unchanged input must not confirm")

	c.Backspace()
	assert.Equal(t, "data", c.Input)
	assert.False(t, c.CanConfirm(), "normalizes back to the original")

	c.Type("2")
	assert.True(t, c.CanConfirm())
	assert.Equal(t, "data2/", c.Target())

	c.Type("/")
	assert.Equal(t, "data2/", c.Target())
}

func TestClone_EmptyInputRejected(t *testing.T) {
	c := NewClone("logs/", entry.Item{Name: "a.txt"})
	assert.Equal(t, "logs/a.txt", c.OriginalPath)

	for range c.OriginalPath {
		c.Backspace()
	}
	assert.Equal(t, "", c.Input)
	assert.False(t, c.CanConfirm())

	c.Type("   ")
	assert.False(t, c.CanConfirm())
}

func TestClone_FileTargetIsVerbatim(t *testing.T) {
	c := NewClone("logs/", entry.Item{Name: "a.txt"})
	c.Type(".bak")
	assert.True(t, c.CanConfirm())
	assert.Equal(t, "logs/a.txt.bak", c.Target())
}

func TestDeleteConfirm_ReportsScenario(t *testing.T) {
	d := NewDeleteConfirm("archive/", entry.Item{Name: "reports", Kind: entry.Folder})

	assert.Equal(t, "archive/reports/", d.TargetPath)
	assert.Equal(t, "reports", d.TargetName)
	assert.True(t, d.IsFolder)
	assert.False(t, d.CanConfirm())

	d.Type("report")
	assert.False(t, d.CanConfirm())

	d.Type("s")
	assert.True(t, d.CanConfirm())

	d.Type("s")
	assert.False(t, d.CanConfirm())
}

func TestDeleteConfirm_FullPathNotAccepted(t *testing.T) {
	d := NewDeleteConfirm("archive/", entry.Item{Name: "reports", Kind: entry.Folder})
	d.Type("archive/reports/")
	assert.False(t, d.CanConfirm())
}

func TestDeleteConfirm_IsCaseSensitive(t *testing.T) {
	d := NewDeleteConfirm("", entry.Item{Name: "Reports"})
	d.Type("reports")
	assert.False(t, d.CanConfirm())
}

func TestDownloadPicker(t *testing.T) {
	p := NewDownloadPicker("logs/", entry.Item{Name: "a.txt"}, "/tmp")
	assert.Equal(t, "/tmp", p.Destination)
	assert.Equal(t, "logs/a.txt", p.TargetKey)
	assert.True(t, p.CanConfirm())

	for range "/tmp" {
		p.Backspace()
	}
	assert.False(t, p.CanConfirm())

	p.Type("out")
	assert.Equal(t, "out", p.Destination)
	assert.True(t, p.CanConfirm())
}
