package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/slmtnm/blobnav/internal/batch"
	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/inspect"
	"github.com/slmtnm/blobnav/internal/modal"
	"github.com/slmtnm/blobnav/internal/preview"
	"github.com/slmtnm/blobnav/internal/search"
)

// Styles - Minimalistic theme
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1)

	directoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#006600")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#0066cc")).
			Padding(1, 2)

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 2)

	browserStyle = lipgloss.NewStyle().
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 2)

	centerStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	verticalCenterStyle = lipgloss.NewStyle().
				AlignVertical(lipgloss.Center)
)

const (
	previewColumns = 6
	defaultRows    = 20
)

// View renders the current state
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title()))
	s.WriteString("\n\n")

	if line := m.viewBanner(); line != "" {
		s.WriteString(line)
		s.WriteString("\n\n")
	}

	switch {
	case m.preview != nil:
		s.WriteString(m.viewPreview())
	case m.modal != nil:
		s.WriteString(m.viewModal())
	default:
		s.WriteString(m.viewList())
	}

	if line := m.viewOp(); line != "" {
		s.WriteString("\n\n")
		s.WriteString(line)
	}

	s.WriteString("\n\n")
	s.WriteString(m.help.View(m.keys))

	content := browserStyle.Render(s.String())
	if m.width > 0 && m.height > 0 {
		centered := centerStyle.Width(m.width).Render(content)
		return verticalCenterStyle.Height(m.height).Render(centered)
	}
	return content
}

func (m Model) title() string {
	b := m.browsing()
	if b == nil {
		return "blobnav | Containers"
	}
	title := fmt.Sprintf("Container: %s", b.Container)
	if b.Path != "" {
		title += fmt.Sprintf(" | Path: /%s", b.Path)
	}
	return title
}

func (m Model) viewBanner() string {
	if m.banner == nil {
		return ""
	}
	if m.banner.isError {
		return errorStyle.Render(m.icons.Error + " " + m.banner.text)
	}
	return successStyle.Render(m.icons.Success + " " + m.banner.text)
}

// viewOp renders the spinner or the progress bar of the outstanding
// operation.
func (m Model) viewOp() string {
	switch op := m.op.(type) {
	case nil:
		return ""
	case LoadingContainers:
		return m.spinner.View() + " Loading containers..."
	case LoadingFiles:
		return m.spinner.View() + " Loading..."
	case LoadingInfo:
		return m.spinner.View() + " Fetching info..."
	case Cloning:
		return m.viewProgress("Cloning", op.Progress)
	case Deleting:
		return m.viewProgress("Deleting", op.Progress)
	case Downloading:
		return m.viewProgress("Downloading", op.Progress)
	}
	return ""
}

func (m Model) viewProgress(verb string, p batch.Progress) string {
	var s strings.Builder
	if p.TotalFiles == 0 {
		fmt.Fprintf(&s, "%s %s %s...", m.spinner.View(), verb, p.CurrentFile)
		return s.String()
	}

	fmt.Fprintf(&s, "%s %s\n", verb, p.CurrentFile)
	s.WriteString(m.progress.ViewAs(p.Fraction()))
	fmt.Fprintf(&s, " %d/%d files", p.FilesCompleted, p.TotalFiles)
	if p.BytesDownloaded > 0 {
		if p.TotalBytes != nil {
			fmt.Fprintf(&s, ", %s / %s", humanize.IBytes(uint64(p.BytesDownloaded)), humanize.IBytes(uint64(*p.TotalBytes)))
		} else {
			fmt.Fprintf(&s, ", %s", humanize.IBytes(uint64(p.BytesDownloaded)))
		}
	}
	if p.Failed() > 0 {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("%d failed: %s", p.Failed(), p.ErrorMessage)))
	}
	return s.String()
}

func (m Model) viewSearch() string {
	if m.search == nil {
		return ""
	}
	label := "Search containers"
	if _, ok := m.search.(*search.Files); ok {
		label = "Search files"
	}
	return fmt.Sprintf("%s %s: %s█\n\n", m.icons.Search, label, m.search.Query())
}

// visibleWindow returns the [start, end) range of n rows that keeps
// selected on screen.
func (m Model) visibleWindow(selected, n int) (int, int) {
	rows := defaultRows
	if m.height > 0 {
		rows = max(m.height-14, 3)
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	return start, min(start+rows, n)
}

func (m Model) viewList() string {
	var s strings.Builder
	s.WriteString(m.viewSearch())

	b := m.browsing()
	if b == nil {
		if len(m.containers) == 0 {
			if m.op == nil {
				s.WriteString(m.icons.Empty + " No containers found.")
			}
			return s.String()
		}
		start, end := m.visibleWindow(m.containerIndex, len(m.containers))
		for i := start; i < end; i++ {
			line := fmt.Sprintf("%s %s %s", cursor(i == m.containerIndex), m.icons.Folder, directoryStyle.Render(m.containers[i].Name))
			if i == m.containerIndex {
				line = selectedStyle.Render(line)
			}
			s.WriteString(line)
			s.WriteString("\n")
		}
		return strings.TrimSuffix(s.String(), "\n")
	}

	if len(b.Items) == 0 {
		if _, loading := m.op.(LoadingFiles); !loading {
			s.WriteString(m.icons.Empty + " No objects found in this location.")
		}
		return s.String()
	}
	start, end := m.visibleWindow(b.Selected, len(b.Items))
	for i := start; i < end; i++ {
		line := m.itemLine(b.Items[i], i == b.Selected)
		if i == b.Selected {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	if end-start < len(b.Items) {
		s.WriteString(helpStyle.Render(fmt.Sprintf("[%d-%d of %d]", start+1, end, len(b.Items))))
	}
	return strings.TrimSuffix(s.String(), "\n")
}

func cursor(selected bool) string {
	if selected {
		return ">"
	}
	return " "
}

func (m Model) itemLine(item entry.Item, selected bool) string {
	if item.IsFolder() {
		return fmt.Sprintf("%s %s %s", cursor(selected), m.icons.Folder, directoryStyle.Render(item.Name+"/"))
	}
	line := fmt.Sprintf("%s %s %s", cursor(selected), m.icons.File, fileStyle.Render(item.Name))
	if item.Size != nil {
		line += fmt.Sprintf(" (%s)", humanize.IBytes(uint64(*item.Size)))
	}
	if item.LastModified != nil {
		line += " " + item.LastModified.Local().Format(time.DateTime)
	}
	return line
}

func (m Model) viewModal() string {
	switch md := m.modal.(type) {
	case *modal.BlobInfo:
		return dialogStyle.Render(viewInfo(md.Info) + "\n\n" + helpStyle.Render("esc/enter/i: close"))

	case *modal.SortPicker:
		var s strings.Builder
		s.WriteString("Sort by\n\n")
		for _, opt := range []struct {
			key string
			c   entry.Criteria
		}{
			{"n", entry.ByName},
			{"m", entry.ByDateModified},
			{"t", entry.ByDateCreated},
			{"s", entry.BySize},
		} {
			mark := " "
			if opt.c == m.sortBy {
				mark = "*"
			}
			fmt.Fprintf(&s, "%s %s: %s\n", mark, opt.key, opt.c)
		}
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("esc: cancel"))
		return dialogStyle.Render(s.String())

	case *modal.Clone:
		kind := "file"
		if md.IsFolder {
			kind = "folder"
		}
		body := fmt.Sprintf("Clone %s %s\n\nDestination: %s█", kind, md.OriginalPath, md.Input)
		if !md.CanConfirm() {
			body += "\n\n" + helpStyle.Render("Destination must differ from the source")
		}
		return dialogStyle.Render(body + "\n\n" + helpStyle.Render("enter: clone • esc: cancel"))

	case *modal.DeleteConfirm:
		kind := "file"
		if md.IsFolder {
			kind = "folder and everything under it"
		}
		body := fmt.Sprintf("%s\n\nType %q to confirm: %s█",
			errorStyle.Render(fmt.Sprintf("Delete %s %s?", kind, md.TargetPath)),
			md.TargetName, md.Input)
		return dialogStyle.Render(body + "\n\n" + helpStyle.Render("enter: delete • esc: cancel"))

	case *modal.DownloadPicker:
		body := fmt.Sprintf("Download %s\n\nDestination directory: %s█", md.TargetKey, md.Destination)
		return dialogStyle.Render(body + "\n\n" + helpStyle.Render("enter: download • esc: cancel"))
	}
	return ""
}

func viewInfo(info inspect.Info) string {
	switch i := info.(type) {
	case *inspect.FileInfo:
		return fmt.Sprintf("Name:          %s\nSize:          %s (%s bytes)\nLast modified: %s\nETag:          %s",
			i.Name,
			humanize.IBytes(uint64(i.Size)), humanize.Comma(i.Size),
			i.LastModified.Local().Format(time.DateTime),
			i.ETag)
	case *inspect.FolderInfo:
		return fmt.Sprintf("Folder:     %s\nBlobs:      %s\nTotal size: %s",
			i.Name, humanize.Comma(int64(i.BlobCount)), humanize.IBytes(uint64(i.TotalSize)))
	}
	return ""
}

// previewExtent returns the scrollable rows and columns of data.
func previewExtent(data preview.Data) (int, int) {
	switch d := data.(type) {
	case *preview.Table:
		return len(d.Rows), len(d.Headers)
	case *preview.Document:
		return len(strings.Split(d.Content, "\n")), 0
	case *preview.Plain:
		return len(strings.Split(d.Content, "\n")), 0
	case *preview.Schema:
		return len(d.Columns), 3
	}
	return 0, 0
}

func (m Model) viewPreview() string {
	p := m.preview
	var s strings.Builder

	if p.loading {
		fmt.Fprintf(&s, "%s Loading preview of %s...", m.spinner.View(), p.name)
		return s.String()
	}

	rows := defaultRows
	if m.height > 0 {
		rows = max(m.height-16, 3)
	}

	switch d := p.data.(type) {
	case *preview.Table:
		fmt.Fprintf(&s, "Preview: %s (%s, %d rows)\n", p.name, d.Type, d.TotalRows)
		s.WriteString(renderTable(d, p.row, p.col, rows))
		if d.Truncated {
			fmt.Fprintf(&s, "\n[Showing first %d rows]", len(d.Rows))
		}
	case *preview.Document:
		label := "JSON"
		if d.Raw {
			label = "JSON, unformatted"
		}
		fmt.Fprintf(&s, "Preview: %s (%s)\n", p.name, label)
		s.WriteString(previewStyle.Render(numberedLines(d.Content, p.row, rows)))
		if d.Truncated {
			fmt.Fprintf(&s, "\n[Showing first lines of %d]", d.TotalLines)
		}
	case *preview.Schema:
		fmt.Fprintf(&s, "Preview: %s (PARQUET, %s rows, %d row groups)\n",
			p.name, humanize.Comma(d.NumRows), d.RowGroups)
		s.WriteString(renderTable(d.Table(), p.row, p.col, rows))
	case *preview.Plain:
		fmt.Fprintf(&s, "Preview: %s (%s)\n", p.name, d.Label)
		s.WriteString(previewStyle.Render(numberedLines(d.Content, p.row, rows)))
		if d.Truncated {
			fmt.Fprintf(&s, "\n[Showing first lines of %d]", d.TotalLines)
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/k,↓/j: scroll • ←/h,→/l: columns • p/esc: close"))
	return s.String()
}

// renderTable draws up to height rows and previewColumns columns starting
// at the given offsets.
func renderTable(t *preview.Table, row, col, height int) string {
	if len(t.Headers) == 0 {
		return "[Empty table]"
	}
	colEnd := min(col+previewColumns, len(t.Headers))
	rowEnd := min(row+height, len(t.Rows))

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))).
		StyleFunc(func(r, c int) lipgloss.Style {
			if r == table.HeaderRow {
				return directoryStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(t.Headers[col:colEnd]...)

	for _, r := range t.Rows[min(row, rowEnd):rowEnd] {
		cells := make([]string, colEnd-col)
		for i := range cells {
			if col+i < len(r) {
				cells[i] = r[col+i]
			}
		}
		tbl.Row(cells...)
	}

	out := tbl.String()
	if colEnd-col < len(t.Headers) {
		out += fmt.Sprintf("\n[Columns %d-%d of %d]", col+1, colEnd, len(t.Headers))
	}
	return out
}

func numberedLines(content string, start, height int) string {
	if content == "" {
		return "[Empty file]"
	}
	lines := strings.Split(content, "\n")
	start = min(start, len(lines)-1)
	end := min(start+height, len(lines))

	var b strings.Builder
	for i, line := range lines[start:end] {
		fmt.Fprintf(&b, "%4d │ %s\n", start+i+1, line)
	}
	if len(lines) > height {
		fmt.Fprintf(&b, "\n[Showing lines %d-%d of %d]", start+1, end, len(lines))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
