package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slmtnm/blobnav/internal/batch"
	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/inspect"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/preview"
	"github.com/slmtnm/blobnav/internal/store"
)

// Messages for async operations
type containersLoadedMsg struct {
	names []string
	err   error
}

type containerOpenedMsg struct {
	container string
	store     store.Store
	items     []entry.Item
	err       error
}

type filesLoadedMsg struct {
	container string
	path      string
	items     []entry.Item
	err       error
}

type infoLoadedMsg struct {
	key  string
	info inspect.Info
	err  error
}

type previewLoadedMsg struct {
	key  string
	data preview.Data
	err  error
}

type batchPlannedMsg struct {
	job *batch.Job
	err error
}

type batchSteppedMsg struct {
	job      *batch.Job
	progress batch.Progress
}

type copiedMsg struct {
	text string
	err  error
}

// loadContainers lists every container page before returning.
func (m Model) loadContainers() tea.Cmd {
	dir, ctx, log := m.dir, m.ctx, m.log
	return func() tea.Msg {
		names, err := store.ListAllContainers(ctx, dir)
		if err != nil {
			log.Error("failed to list containers", logging.ErrorField(err))
			return containersLoadedMsg{err: err}
		}
		log.Debug("containers loaded", logging.Int("count", len(names)))
		return containersLoadedMsg{names: names}
	}
}

// openContainer binds a store to name and lists its root.
func (m Model) openContainer(name string) tea.Cmd {
	dir, ctx, log := m.dir, m.ctx, m.log
	return func() tea.Msg {
		st, err := dir.Open(ctx, name)
		if err != nil {
			log.Error("failed to open container", logging.String("container", name), logging.ErrorField(err))
			return containerOpenedMsg{container: name, err: err}
		}
		listing, err := st.ListWithDelimiter(ctx, "")
		if err != nil {
			log.Error("failed to list files", logging.String("container", name), logging.ErrorField(err))
			return containerOpenedMsg{container: name, err: err}
		}
		return containerOpenedMsg{container: name, store: st, items: entry.FromListing(listing)}
	}
}

// loadFiles re-lists the current prefix.
func (m Model) loadFiles() tea.Cmd {
	b := m.browsing()
	if b == nil {
		return nil
	}
	st, container, path, ctx, log := b.Store, b.Container, b.Path, m.ctx, m.log
	return func() tea.Msg {
		listing, err := st.ListWithDelimiter(ctx, path)
		if err != nil {
			log.Error("failed to list files",
				logging.String("container", container),
				logging.String("prefix", path),
				logging.ErrorField(err),
			)
			return filesLoadedMsg{container: container, path: path, err: err}
		}
		return filesLoadedMsg{container: container, path: path, items: entry.FromListing(listing)}
	}
}

// loadInfo runs the metadata query for item.
func (m Model) loadInfo(b *Browsing, item entry.Item) tea.Cmd {
	st, path, ctx := b.Store, b.Path, m.ctx
	key := item.Key(path)
	return func() tea.Msg {
		info, err := inspect.Item(ctx, st, path, item)
		return infoLoadedMsg{key: key, info: info, err: err}
	}
}

// loadPreview reads the head of key and parses it for display. Parquet
// files are read from the footer.
func (m Model) loadPreview(st store.Store, key string) tea.Cmd {
	ctx := m.ctx
	ft := preview.DetectType(entry.Base(key))
	if ft.Kind == preview.Parquet {
		return func() tea.Msg {
			meta, err := st.Head(ctx, key)
			if err != nil {
				return previewLoadedMsg{key: key, err: fmt.Errorf("failed to read file: %w", err)}
			}
			schema, err := preview.ParseParquet(meta.Size, func(offset, length int64) ([]byte, error) {
				return st.GetRange(ctx, key, offset, length)
			})
			if err != nil {
				return previewLoadedMsg{key: key, err: err}
			}
			return previewLoadedMsg{key: key, data: schema}
		}
	}
	return func() tea.Msg {
		data, err := st.GetRange(ctx, key, 0, preview.MaxBytes)
		if err != nil {
			return previewLoadedMsg{key: key, err: fmt.Errorf("failed to read file: %w", err)}
		}
		parsed, err := preview.Parse(data, ft)
		return previewLoadedMsg{key: key, data: parsed, err: err}
	}
}

// planClone enumerates a clone.
func (m Model) planClone(st store.Store, src, dst string, isFolder bool) tea.Cmd {
	eng, ctx := batch.New(st, m.log), m.ctx
	return func() tea.Msg {
		job, err := eng.Clone(ctx, src, dst, isFolder)
		return batchPlannedMsg{job: job, err: err}
	}
}

// planDelete enumerates a delete.
func (m Model) planDelete(st store.Store, key string, isFolder bool) tea.Cmd {
	eng, ctx := batch.New(st, m.log), m.ctx
	return func() tea.Msg {
		job, err := eng.Delete(ctx, key, isFolder)
		return batchPlannedMsg{job: job, err: err}
	}
}

// planDownload enumerates a download into dest.
func (m Model) planDownload(st store.Store, key string, isFolder bool, dest string) tea.Cmd {
	eng, ctx := batch.New(st, m.log), m.ctx
	return func() tea.Msg {
		job, err := eng.Download(ctx, key, isFolder, batch.DownloadOptions{Dest: dest})
		return batchPlannedMsg{job: job, err: err}
	}
}

// step runs one item of job.
func (m Model) step(job *batch.Job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return batchSteppedMsg{job: job, progress: job.Step(ctx)}
	}
}

// copyText writes text to the clipboard.
func (m Model) copyText(text string) tea.Cmd {
	clip := m.clipboard
	return func() tea.Msg {
		if clip == nil {
			return copiedMsg{text: text, err: fmt.Errorf("clipboard is not available")}
		}
		return copiedMsg{text: text, err: clip.Copy(text)}
	}
}
