package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/slmtnm/blobnav/internal/batch"
	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/modal"
	"github.com/slmtnm/blobnav/internal/search"
	"github.com/slmtnm/blobnav/internal/store"
)

const pageSize = 10

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case containersLoadedMsg:
		return m.onContainersLoaded(msg)

	case containerOpenedMsg:
		return m.onContainerOpened(msg)

	case filesLoadedMsg:
		return m.onFilesLoaded(msg)

	case infoLoadedMsg:
		return m.onInfoLoaded(msg)

	case previewLoadedMsg:
		return m.onPreviewLoaded(msg)

	case batchPlannedMsg:
		return m.onBatchPlanned(msg)

	case batchSteppedMsg:
		return m.onBatchStepped(msg)

	case copiedMsg:
		if msg.err != nil {
			m.setError("Copy failed: %v", msg.err)
		} else {
			m.setStatus("Copied %s to clipboard", msg.text)
		}
		return m, nil
	}

	return m, nil
}

// handleKey routes a key through dialogs, search, blocking operations,
// global keys and finally the mode keys, in that order.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch md := m.modal.(type) {
	case *modal.DeleteConfirm:
		return m.updateDeleteConfirm(md, msg)
	case *modal.Clone:
		return m.updateClone(md, msg)
	case *modal.DownloadPicker:
		return m.updateDownloadPicker(md, msg)
	}

	switch s := m.search.(type) {
	case *search.Containers:
		return m.updateContainerSearch(s, msg)
	case *search.Files:
		return m.updateFileSearch(s, msg)
	}

	if blocksInput(m.op) {
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.session.(type) {
	case Selecting:
		return m.updateSelecting(msg)
	case *Browsing:
		return m.updateBrowsing(msg)
	}
	return m, nil
}

// typedText returns the printable text carried by msg.
func typedText(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return "", false
		}
		return string(msg.Runes), true
	case tea.KeySpace:
		return " ", true
	}
	return "", false
}

// move applies cursor keys to idx over a list of n rows.
func (m Model) move(msg tea.KeyMsg, idx, n int) (int, bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		idx--
	case key.Matches(msg, m.keys.Down):
		idx++
	case key.Matches(msg, m.keys.PageUp):
		idx -= pageSize
	case key.Matches(msg, m.keys.PageDown):
		idx += pageSize
	case key.Matches(msg, m.keys.Home):
		idx = 0
	case key.Matches(msg, m.keys.End):
		idx = n - 1
	default:
		return idx, false
	}
	return clamp(idx, n), true
}

func clamp(idx, n int) int {
	if n == 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func (m *Model) setStatus(format string, args ...any) {
	m.banner = &banner{text: fmt.Sprintf(format, args...)}
}

func (m *Model) setError(format string, args ...any) {
	m.banner = &banner{text: fmt.Sprintf(format, args...), isError: true}
}

// busy reports whether an operation is outstanding and, if so, says so on
// the banner.
func (m *Model) busy() bool {
	switch op := m.op.(type) {
	case nil:
		return false
	case Downloading:
		m.setError("Download in progress (%d/%d files); wait for it to finish",
			op.Progress.FilesCompleted+op.Progress.Failed(), op.Progress.TotalFiles)
	default:
		m.setError("Wait for the current operation to finish")
	}
	return true
}

// Dialogs

func (m Model) updateDeleteConfirm(d *modal.DeleteConfirm, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.modal = nil
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if !d.CanConfirm() {
			return m, nil
		}
		b := m.browsing()
		if b == nil {
			m.modal = nil
			return m, nil
		}
		m.modal = nil
		m.banner = nil
		m.op = Deleting{Progress: batch.Progress{CurrentFile: d.TargetPath}}
		m.run = &batchRun{op: batch.OpDelete, summary: "Deleted " + d.TargetPath}
		m.log.Info("delete confirmed", logging.String("container", b.Container), logging.String("target", d.TargetPath))
		return m, m.planDelete(b.Store, d.TargetPath, d.IsFolder)
	case key.Matches(msg, m.keys.Erase):
		d.Backspace()
		return m, nil
	}
	if text, ok := typedText(msg); ok {
		d.Type(text)
	}
	return m, nil
}

func (m Model) updateClone(c *modal.Clone, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.modal = nil
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if !c.CanConfirm() {
			return m, nil
		}
		b := m.browsing()
		if b == nil {
			m.modal = nil
			return m, nil
		}
		target := c.Target()
		m.modal = nil
		m.banner = nil
		m.op = Cloning{Progress: batch.Progress{CurrentFile: c.OriginalPath}}
		m.run = &batchRun{op: batch.OpClone, summary: fmt.Sprintf("Cloned %s to %s", c.OriginalPath, target)}
		m.log.Info("clone confirmed",
			logging.String("container", b.Container),
			logging.String("source", c.OriginalPath),
			logging.String("target", target),
		)
		return m, m.planClone(b.Store, c.OriginalPath, target, c.IsFolder)
	case key.Matches(msg, m.keys.Erase):
		c.Backspace()
		return m, nil
	}
	if text, ok := typedText(msg); ok {
		c.Type(text)
	}
	return m, nil
}

func (m Model) updateDownloadPicker(p *modal.DownloadPicker, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.modal = nil
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if !p.CanConfirm() {
			return m, nil
		}
		b := m.browsing()
		if b == nil {
			m.modal = nil
			return m, nil
		}
		dest := expandHome(strings.TrimSpace(p.Destination))
		m.modal = nil
		m.banner = nil
		m.op = Downloading{Progress: batch.Progress{CurrentFile: p.TargetKey}}
		m.run = &batchRun{op: batch.OpDownload, summary: fmt.Sprintf("Downloaded %s to %s", p.TargetKey, dest)}
		m.log.Info("download confirmed",
			logging.String("container", b.Container),
			logging.String("target", p.TargetKey),
			logging.String("destination", dest),
		)
		return m, m.planDownload(b.Store, p.TargetKey, p.IsFolder, dest)
	case key.Matches(msg, m.keys.Erase):
		p.Backspace()
		return m, nil
	}
	if text, ok := typedText(msg); ok {
		p.Type(text)
	}
	return m, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Search

func (m Model) updateContainerSearch(s *search.Containers, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.containers = s.All
		m.search = nil
		m.containerIndex = 0
	case key.Matches(msg, m.keys.Confirm):
		m.containers = s.Filtered()
		m.search = nil
		m.containerIndex = 0
	case key.Matches(msg, m.keys.Erase):
		m.containers = s.Backspace()
		m.containerIndex = 0
	case key.Matches(msg, m.keys.SearchUp):
		m.containerIndex = clamp(m.containerIndex-1, len(m.containers))
	case key.Matches(msg, m.keys.SearchDown):
		m.containerIndex = clamp(m.containerIndex+1, len(m.containers))
	default:
		if text, ok := typedText(msg); ok {
			m.containers = s.Type(text)
			m.containerIndex = 0
		}
	}
	return m, nil
}

func (m Model) updateFileSearch(s *search.Files, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.browsing()
	if b == nil {
		m.search = nil
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		b.Items = s.All
		m.search = nil
		b.Selected = 0
	case key.Matches(msg, m.keys.Confirm):
		b.Items = s.Filtered()
		m.search = nil
		b.Selected = 0
	case key.Matches(msg, m.keys.Erase):
		b.Items = s.Backspace()
		b.Selected = 0
	case key.Matches(msg, m.keys.SearchUp):
		b.Selected = clamp(b.Selected-1, len(b.Items))
	case key.Matches(msg, m.keys.SearchDown):
		b.Selected = clamp(b.Selected+1, len(b.Items))
	default:
		if text, ok := typedText(msg); ok {
			b.Items = s.Type(text)
			b.Selected = 0
		}
	}
	return m, nil
}

// Selecting

func (m Model) updateSelecting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if idx, ok := m.move(msg, m.containerIndex, len(m.containers)); ok {
		m.containerIndex = idx
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Enter):
		if len(m.containers) == 0 || m.busy() {
			return m, nil
		}
		return m.openSelected(m.containers[m.containerIndex].Name)

	case key.Matches(msg, m.keys.Refresh):
		if m.busy() {
			return m, nil
		}
		m.banner = nil
		m.op = LoadingContainers{}
		return m, m.loadContainers()

	case key.Matches(msg, m.keys.Search):
		m.search = search.StartContainers(m.containers)
		m.containerIndex = 0

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// openSelected starts binding a store to the named container.
func (m Model) openSelected(name string) (tea.Model, tea.Cmd) {
	m.banner = nil
	m.op = LoadingFiles{}
	m.log.Info("opening container", logging.String("container", name))
	return m, m.openContainer(name)
}

// Browsing

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.browsing()

	if m.preview != nil {
		return m.updatePreview(msg)
	}

	switch m.modal.(type) {
	case *modal.SortPicker:
		return m.updateSortPicker(msg)
	case *modal.BlobInfo:
		if key.Matches(msg, m.keys.Cancel, m.keys.Confirm, m.keys.Info) {
			m.modal = nil
		}
		return m, nil
	}

	if idx, ok := m.move(msg, b.Selected, len(b.Items)); ok {
		b.Selected = idx
		return m, nil
	}

	item, hasItem := b.Current()

	switch {
	case key.Matches(msg, m.keys.Enter):
		if !hasItem || !item.IsFolder() || m.busy() {
			return m, nil
		}
		b.Path = entry.Enter(b.Path, item.Name)
		return m.reload(b)

	case key.Matches(msg, m.keys.Back):
		if m.busy() {
			return m, nil
		}
		if b.Path == "" {
			m.session = Selecting{}
			m.search = nil
			m.banner = nil
			return m, nil
		}
		b.Path = entry.Parent(b.Path)
		return m.reload(b)

	case key.Matches(msg, m.keys.Refresh):
		if m.busy() {
			return m, nil
		}
		return m.reload(b)

	case key.Matches(msg, m.keys.Search):
		m.search = search.StartFiles(b.Items)
		b.Selected = 0

	case key.Matches(msg, m.keys.Sort):
		m.modal = &modal.SortPicker{}

	case key.Matches(msg, m.keys.Info):
		if !hasItem || m.busy() {
			return m, nil
		}
		m.banner = nil
		m.op = LoadingInfo{}
		return m, m.loadInfo(b, item)

	case key.Matches(msg, m.keys.Clone):
		if !hasItem || m.busy() {
			return m, nil
		}
		m.modal = modal.NewClone(b.Path, item)

	case key.Matches(msg, m.keys.Delete):
		if !hasItem || m.busy() {
			return m, nil
		}
		m.modal = modal.NewDeleteConfirm(b.Path, item)

	case key.Matches(msg, m.keys.Download):
		if !hasItem || m.busy() {
			return m, nil
		}
		m.modal = modal.NewDownloadPicker(b.Path, item, m.downloadDir)

	case key.Matches(msg, m.keys.Copy):
		if !hasItem {
			return m, nil
		}
		return m, m.copyText(b.Container + "/" + item.Key(b.Path))

	case key.Matches(msg, m.keys.Preview):
		if !hasItem {
			return m, nil
		}
		if item.IsFolder() {
			m.setError("Preview is only available for files")
			return m, nil
		}
		k := item.Key(b.Path)
		m.preview = &previewPanel{key: k, name: item.Name, loading: true}
		return m, m.loadPreview(b.Store, k)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// reload lists b.Path again. The file search is cleared and the selection
// goes back to the top.
func (m Model) reload(b *Browsing) (tea.Model, tea.Cmd) {
	m.search = nil
	m.banner = nil
	b.Selected = 0
	m.op = LoadingFiles{}
	return m, m.loadFiles()
}

func (m Model) updateSortPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var c entry.Criteria
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.modal = nil
		return m, nil
	case key.Matches(msg, m.keys.SortName):
		c = entry.ByName
	case key.Matches(msg, m.keys.SortModified):
		c = entry.ByDateModified
	case key.Matches(msg, m.keys.SortCreated):
		c = entry.ByDateCreated
	case key.Matches(msg, m.keys.SortSize):
		c = entry.BySize
	default:
		return m, nil
	}

	m.modal = nil
	m.applySort(c)
	m.setStatus("Sorted by %s", c)
	return m, nil
}

// applySort re-orders the listing and any search snapshot.
func (m *Model) applySort(c entry.Criteria) {
	m.sortBy = c
	b := m.browsing()
	if b == nil {
		return
	}
	b.Items = entry.Sort(b.Items, c)
	b.Selected = 0
	if s, ok := m.search.(*search.Files); ok {
		s.All = entry.Sort(s.All, c)
	}
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.preview
	rows, cols := previewExtent(p.data)

	switch {
	case key.Matches(msg, m.keys.Preview, m.keys.Cancel):
		m.preview = nil
	case key.Matches(msg, m.keys.ScrollLeft):
		p.col = clamp(p.col-1, cols)
	case key.Matches(msg, m.keys.ScrollRight):
		p.col = clamp(p.col+1, cols)
	default:
		if row, ok := m.move(msg, p.row, rows); ok {
			p.row = row
		}
	}
	return m, nil
}

// Results

func (m Model) onContainersLoaded(msg containersLoadedMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.op.(LoadingContainers); ok {
		m.op = nil
	}
	if msg.err != nil {
		if store.IsInvalidCredentials(msg.err) {
			m.setError("Failed to list containers: %v; check the configured credentials", msg.err)
			return m, nil
		}
		m.setError("Failed to list containers: %v", msg.err)
		return m, nil
	}

	m.containers = entry.Containers(msg.names)
	m.containerIndex = 0

	if m.initial != "" {
		name := m.initial
		m.initial = ""
		for i, c := range m.containers {
			if c.Name == name {
				m.containerIndex = i
				return m.openSelected(name)
			}
		}
		m.setError("Container %q not found", name)
	}
	return m, nil
}

func (m Model) onContainerOpened(msg containerOpenedMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.op.(LoadingFiles); !ok {
		return m, nil
	}
	m.op = nil
	if msg.err != nil {
		m.setError("Failed to open %s: %v", msg.container, msg.err)
		return m, nil
	}

	m.session = &Browsing{
		Container: msg.container,
		Store:     msg.store,
		Items:     entry.Sort(msg.items, m.sortBy),
	}
	m.search = nil
	m.preview = nil
	return m, nil
}

func (m Model) onFilesLoaded(msg filesLoadedMsg) (tea.Model, tea.Cmd) {
	b := m.browsing()
	if b == nil || b.Container != msg.container || b.Path != msg.path {
		return m, nil
	}
	if _, ok := m.op.(LoadingFiles); ok {
		m.op = nil
	}
	if msg.err != nil {
		m.setError("Failed to list %s/%s: %v", msg.container, msg.path, msg.err)
		return m, nil
	}

	items := entry.Sort(msg.items, m.sortBy)
	if s, ok := m.search.(*search.Files); ok {
		items = s.Reset(items)
	}
	b.Items = items
	b.Selected = 0
	return m, nil
}

func (m Model) onInfoLoaded(msg infoLoadedMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.op.(LoadingInfo); !ok {
		return m, nil
	}
	m.op = nil
	if msg.err != nil {
		m.setError("Failed to get info for %s: %v", msg.key, msg.err)
		return m, nil
	}
	m.modal = &modal.BlobInfo{Info: msg.info}
	return m, nil
}

func (m Model) onPreviewLoaded(msg previewLoadedMsg) (tea.Model, tea.Cmd) {
	if m.preview == nil || m.preview.key != msg.key {
		return m, nil
	}
	if msg.err != nil {
		m.setError("Cannot preview %s: %v", m.preview.name, msg.err)
		m.preview = nil
		return m, nil
	}
	m.preview.loading = false
	m.preview.data = msg.data
	return m, nil
}

func (m Model) onBatchPlanned(msg batchPlannedMsg) (tea.Model, tea.Cmd) {
	if m.run == nil || m.run.job != nil {
		return m, nil
	}
	if msg.err != nil {
		m.setError("%s failed: %v", m.run.op, msg.err)
		m.op = nil
		m.run = nil
		return m, nil
	}

	m.run.job = msg.job
	m.setProgress(msg.job.Progress())
	if msg.job.Done() {
		return m.finishBatch()
	}
	return m, m.step(msg.job)
}

func (m Model) onBatchStepped(msg batchSteppedMsg) (tea.Model, tea.Cmd) {
	if m.run == nil || m.run.job != msg.job {
		return m, nil
	}
	m.setProgress(msg.progress)
	if msg.job.Done() {
		return m.finishBatch()
	}
	return m, m.step(msg.job)
}

func (m *Model) setProgress(p batch.Progress) {
	switch m.op.(type) {
	case Cloning:
		m.op = Cloning{Progress: p}
	case Deleting:
		m.op = Deleting{Progress: p}
	case Downloading:
		m.op = Downloading{Progress: p}
	}
}

// finishBatch reports the outcome and refreshes the listing. Per-item
// failures are counted in the banner but do not make it an error.
func (m Model) finishBatch() (tea.Model, tea.Cmd) {
	run := m.run
	p := run.job.Progress()
	m.op = nil
	m.run = nil

	text := fmt.Sprintf("%s (%d/%d files", run.summary, p.FilesCompleted, p.TotalFiles)
	if run.job.Op() == batch.OpDownload {
		text += ", " + humanize.Bytes(uint64(p.BytesDownloaded))
	}
	text += ")"
	if failed := p.Failed(); failed > 0 {
		text += fmt.Sprintf(", %d failed; last error: %s", failed, p.ErrorMessage)
	}
	m.setStatus("%s", text)

	b := m.browsing()
	if b == nil {
		return m, nil
	}
	m.op = LoadingFiles{}
	return m, m.loadFiles()
}
