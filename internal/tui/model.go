// Package tui is the interactive browser: a bubbletea model that moves
// between container selection and prefix browsing, and runs one store
// operation at a time on behalf of the user.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slmtnm/blobnav/internal/batch"
	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/icons"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/modal"
	"github.com/slmtnm/blobnav/internal/preview"
	"github.com/slmtnm/blobnav/internal/search"
	"github.com/slmtnm/blobnav/internal/store"
)

// Session is the top-level mode: Selecting or *Browsing.
type Session interface {
	isSession()
}

// Selecting is the container selection list. No store is bound.
type Selecting struct{}

// Browsing is navigation inside one container.
type Browsing struct {
	Container string
	Store     store.Store

	// Path is "" at the container root; otherwise it ends with "/".
	Path string

	// Items is the authoritative list, already sorted and, while a file
	// search is active, filtered.
	Items []entry.Item

	// Selected is 0 when Items is empty, else < len(Items).
	Selected int
}

func (Selecting) isSession() {}
func (*Browsing) isSession() {}

// Current returns the selected item, if any.
func (b *Browsing) Current() (entry.Item, bool) {
	if len(b.Items) == 0 {
		return entry.Item{}, false
	}
	return b.Items[b.Selected], true
}

// AsyncOp is the single outstanding operation: nil or one of the types
// below.
type AsyncOp interface {
	isAsyncOp()
}

type (
	LoadingContainers struct{}
	LoadingFiles      struct{}
	LoadingInfo       struct{}
	Downloading       struct{ Progress batch.Progress }
	Cloning           struct{ Progress batch.Progress }
	Deleting          struct{ Progress batch.Progress }
)

func (LoadingContainers) isAsyncOp() {}
func (LoadingFiles) isAsyncOp()      {}
func (LoadingInfo) isAsyncOp()       {}
func (Downloading) isAsyncOp()       {}
func (Cloning) isAsyncOp()           {}
func (Deleting) isAsyncOp()          {}

// blocksInput reports whether op swallows every key. Downloads let the
// user keep navigating.
func blocksInput(op AsyncOp) bool {
	switch op.(type) {
	case nil, Downloading:
		return false
	default:
		return true
	}
}

// Copier places text on the clipboard.
type Copier interface {
	Copy(text string) error
}

// Options configure a Model.
type Options struct {
	Directory store.Directory
	Logger    logging.Logger
	Icons     icons.Set
	Clipboard Copier

	// DownloadDir pre-fills the download destination prompt.
	DownloadDir string

	// InitialContainer is opened as soon as the container list loads.
	InitialContainer string
}

// banner is the one-line status shown under the title.
type banner struct {
	text    string
	isError bool
}

// previewPanel is an open preview of one file.
type previewPanel struct {
	key     string
	name    string
	loading bool
	data    preview.Data
	row     int
	col     int
}

// batchRun tracks the job behind a Cloning, Deleting or Downloading op.
// job is nil until enumeration finishes.
type batchRun struct {
	op      batch.Op
	summary string
	job     *batch.Job
}

// Model represents the application state
type Model struct {
	dir         store.Directory
	log         logging.Logger
	icons       icons.Set
	clipboard   Copier
	keys        KeyMap
	downloadDir string
	initial     string
	ctx         context.Context

	session        Session
	containers     []entry.Container
	containerIndex int
	sortBy         entry.Criteria
	search         search.State
	modal          modal.Modal
	op             AsyncOp
	run            *batchRun
	preview        *previewPanel
	banner         *banner

	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	width    int
	height   int
}

// New creates the browser model. It starts in Selecting and lists the
// containers on Init.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	set := opts.Icons
	if set.Name == "" {
		set = icons.Unicode
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0066cc"))

	return Model{
		dir:         opts.Directory,
		log:         log,
		icons:       set,
		clipboard:   opts.Clipboard,
		keys:        DefaultKeyMap(),
		downloadDir: opts.DownloadDir,
		initial:     opts.InitialContainer,
		ctx:         context.Background(),
		session:     Selecting{},
		sortBy:      entry.ByName,
		op:          LoadingContainers{},
		spinner:     s,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:        help.New(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadContainers(), m.spinner.Tick)
}

// Session returns the active mode.
func (m Model) Session() Session { return m.session }

// Op returns the outstanding operation, or nil.
func (m Model) Op() AsyncOp { return m.op }

// Modal returns the open dialog, or nil.
func (m Model) Modal() modal.Modal { return m.modal }

// Search returns the active search overlay, or nil.
func (m Model) Search() search.State { return m.search }

// Containers returns the visible container list.
func (m Model) Containers() []entry.Container { return m.containers }

// ContainerIndex returns the selected container row.
func (m Model) ContainerIndex() int { return m.containerIndex }

// SortBy returns the active sort criterion.
func (m Model) SortBy() entry.Criteria { return m.sortBy }

// Status returns the banner text and whether it reports an error.
func (m Model) Status() (string, bool) {
	if m.banner == nil {
		return "", false
	}
	return m.banner.text, m.banner.isError
}

// browsing returns the browsing state, or nil while selecting.
func (m Model) browsing() *Browsing {
	b, _ := m.session.(*Browsing)
	return b
}
