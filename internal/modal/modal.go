// Package modal holds the dialog that currently owns key input. At most one
// modal is live; a nil Modal means no dialog is open.
package modal

import (
	"strings"

	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/inspect"
)

// Modal is one of *BlobInfo, *DownloadPicker, *SortPicker, *Clone or
// *DeleteConfirm.
type Modal interface {
	isModal()
}

// BlobInfo shows the result of an info query until closed.
type BlobInfo struct {
	Info inspect.Info
}

// DownloadPicker asks for the local destination directory of a download.
type DownloadPicker struct {
	Destination string
	TargetKey   string
	IsFolder    bool
}

// SortPicker waits for a sort criterion key.
type SortPicker struct{}

// Clone edits the destination key of a copy. Input starts as OriginalPath.
type Clone struct {
	Input        string
	OriginalPath string
	IsFolder     bool
}

// DeleteConfirm requires the bare target name to be typed back exactly.
type DeleteConfirm struct {
	Input      string
	TargetPath string
	TargetName string
	IsFolder   bool
}

func (*BlobInfo) isModal()       {}
func (*DownloadPicker) isModal() {}
func (*SortPicker) isModal()     {}
func (*Clone) isModal()          {}
func (*DeleteConfirm) isModal()  {}

// NewClone opens the clone dialog on item listed under path.
func NewClone(path string, item entry.Item) *Clone {
	key := item.Key(path)
	return &Clone{Input: key, OriginalPath: key, IsFolder: item.IsFolder()}
}

// Type appends text to the destination.
func (c *Clone) Type(text string) { c.Input += text }

// Backspace removes the last rune of the destination.
func (c *Clone) Backspace() { c.Input = dropLast(c.Input) }

// Target returns the destination key, normalized to a folder prefix when a
// folder is being cloned.
func (c *Clone) Target() string {
	if c.IsFolder {
		return entry.AsFolder(c.Input)
	}
	return c.Input
}

// CanConfirm reports whether the destination is non-empty and differs from
// the source.
func (c *Clone) CanConfirm() bool {
	if strings.TrimSpace(c.Input) == "" {
		return false
	}
	return c.Target() != c.OriginalPath
}

// NewDeleteConfirm opens the delete dialog on item listed under path.
func NewDeleteConfirm(path string, item entry.Item) *DeleteConfirm {
	return &DeleteConfirm{
		TargetPath: item.Key(path),
		TargetName: item.Name,
		IsFolder:   item.IsFolder(),
	}
}

// Type appends text to the confirmation.
func (d *DeleteConfirm) Type(text string) { d.Input += text }

// Backspace removes the last rune of the confirmation.
func (d *DeleteConfirm) Backspace() { d.Input = dropLast(d.Input) }

// CanConfirm reports whether the typed text equals the bare target name.
func (d *DeleteConfirm) CanConfirm() bool {
	return d.TargetName != "" && d.Input == d.TargetName
}

// NewDownloadPicker opens the destination prompt pre-filled with dir.
func NewDownloadPicker(path string, item entry.Item, dir string) *DownloadPicker {
	return &DownloadPicker{
		Destination: dir,
		TargetKey:   item.Key(path),
		IsFolder:    item.IsFolder(),
	}
}

// Type appends text to the destination.
func (p *DownloadPicker) Type(text string) { p.Destination += text }

// Backspace removes the last rune of the destination.
func (p *DownloadPicker) Backspace() { p.Destination = dropLast(p.Destination) }

// CanConfirm reports whether a destination has been entered.
func (p *DownloadPicker) CanConfirm() bool {
	return strings.TrimSpace(p.Destination) != ""
}

func dropLast(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(r[:len(r)-1])
}
