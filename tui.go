package main

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	ViewBrowser ViewMode = iota
	ViewPreview
	ViewHelp
)

// IconSize controls how much detail each row shows
type IconSize int

const (
	IconSmall IconSize = iota
	IconNormal
	IconLarge
	IconExtraLarge
)

func (s IconSize) String() string {
	switch s {
	case IconSmall:
		return "small"
	case IconLarge:
		return "large"
	case IconExtraLarge:
		return "extra-large"
	default:
		return "normal"
	}
}

// Next cycles through the icon sizes
func (s IconSize) Next() IconSize {
	return (s + 1) % 4
}

// ParseIconSize accepts the names used in config files
func ParseIconSize(s string) (IconSize, error) {
	switch s {
	case "small":
		return IconSmall, nil
	case "", "normal":
		return IconNormal, nil
	case "large":
		return IconLarge, nil
	case "extra-large":
		return IconExtraLarge, nil
	}
	return IconNormal, fmt.Errorf("unknown icon size %q", s)
}

// statusDuration is how long transient status lines stay visible
const statusDuration = 4 * time.Second

// Model represents the application state
type Model struct {
	store    *TabStore
	selector *Selector
	source   string

	keys          KeyMap
	viewMode      ViewMode
	cursors       map[TabID]int
	filterInput   textinput.Model
	editingFilter bool
	iconSize      IconSize
	previewScroll int

	fatalErr      error
	statusMessage string
	statusIsError bool
	statusSeq     int
	width         int
	height        int
}

type clearStatusMsg struct {
	seq int
}

// Styles - Minimalistic theme
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#0066cc")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff"))

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

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#999999")).
			Padding(0, 1)

	browserStyle = lipgloss.NewStyle().
			Padding(1, 2)

	centerStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	verticalCenterStyle = lipgloss.NewStyle().
				AlignVertical(lipgloss.Center)
)

// NewModel creates a new TUI model. source names what is being browsed,
// a server URL or a bucket, for the title bar.
func NewModel(store *TabStore, selector *Selector, source string, iconSize IconSize) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type to filter"
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		store:       store,
		selector:    selector,
		source:      source,
		keys:        DefaultKeyMap(),
		viewMode:    ViewBrowser,
		cursors:     make(map[TabID]int),
		filterInput: ti,
		iconSize:    iconSize,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.store.LoadRoots()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ViewBrowser:
			if m.editingFilter {
				return m.updateFilter(msg)
			}
			return m.updateBrowser(msg)
		case ViewPreview:
			return m.updatePreview(msg)
		case ViewHelp:
			return m.updateHelp(msg)
		}

	case rootsLoadedMsg:
		if msg.err != nil {
			m.fatalErr = errors.New("Error fetching source paths: " + describeError(msg.err))
			return m, nil
		}
		if len(msg.roots) == 0 {
			m.fatalErr = errors.New("the file service has no source paths configured")
			return m, nil
		}
		return m, m.store.Initialize(msg.roots)

	case listingLoadedMsg:
		if m.store.ApplyListing(msg) {
			m.clampCursor(msg.tag.Tab)
		}
		return m, nil

	case previewLoadedMsg:
		if m.selector.ApplyPreview(msg) {
			m.previewScroll = 0
		}
		return m, nil

	case downloadFinishedMsg:
		if msg.err != nil {
			return m.setStatus(fmt.Sprintf("Error downloading %s: %s", path.Base(msg.path), describeError(msg.err)), true)
		}
		return m.setStatus(fmt.Sprintf("✓ Downloaded '%s' to %s", path.Base(msg.path), msg.savedTo), false)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil
	}

	return m, nil
}

// updateBrowser handles browser view updates
func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	tab := m.store.Active()
	if tab == nil {
		return m, nil
	}
	id := tab.ID
	row := m.cursors[id]

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(-1)

	case key.Matches(msg, m.keys.JumpTab):
		index := int(msg.Runes[0] - '1')
		if tabs := m.store.Tabs(); index < len(tabs) {
			_ = m.store.SelectTab(tabs[index])
		}

	case key.Matches(msg, m.keys.Up):
		if row > 0 {
			m.cursors[id] = row - 1
		}

	case key.Matches(msg, m.keys.Down):
		if row < len(tab.Entries)-1 {
			m.cursors[id] = row + 1
		} else {
			// moving past the last row pulls in the next page
			return m, m.store.LoadMore(id)
		}

	case key.Matches(msg, m.keys.LoadMore):
		return m, m.store.LoadMore(id)

	case key.Matches(msg, m.keys.Open):
		if row >= len(tab.Entries) {
			return m, nil
		}
		entry := tab.Entries[row]
		if sel := m.selector.Current(); sel != nil && !entry.IsDir() && sel.FullPath == joinPath(tab.CurrentPath, entry.Name) {
			m.viewMode = ViewPreview
			return m, nil
		}
		cmd, err := m.store.Open(id, entry.Name)
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		if entry.IsDir() {
			m.cursors[id] = 0
		}
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		cmd, err := m.store.NavigateBack(id)
		if err != nil {
			return m, nil
		}
		m.cursors[id] = 0
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		m.editingFilter = true
		m.filterInput.SetValue(tab.FilterText)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Sort):
		m.store.SetSortOrder(m.store.SortOrder().Next())

	case key.Matches(msg, m.keys.Icons):
		m.iconSize = m.iconSize.Next()

	case key.Matches(msg, m.keys.Refresh):
		m.cursors[id] = 0
		return m, m.store.Refresh(id)

	case key.Matches(msg, m.keys.Preview):
		if m.selector.Current() != nil {
			m.viewMode = ViewPreview
		}

	case key.Matches(msg, m.keys.Download):
		target := ""
		if row < len(tab.Entries) && !tab.Entries[row].IsDir() {
			target = joinPath(tab.CurrentPath, tab.Entries[row].Name)
		} else if sel := m.selector.Current(); sel != nil {
			target = sel.FullPath
		}
		if target == "" {
			return m, nil
		}
		var tick tea.Cmd
		m, tick = m.withStatus(fmt.Sprintf("Downloading '%s'...", path.Base(target)), false)
		return m, tea.Batch(tick, m.selector.Download(target))

	case key.Matches(msg, m.keys.Clear):
		m.selector.Clear()

	case key.Matches(msg, m.keys.Help):
		m.viewMode = ViewHelp
	}

	return m, nil
}

// updateFilter hands keystrokes to the filter line. Every change of its
// value refetches the active tab.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := m.store.Active()
	if tab == nil {
		m.editingFilter = false
		m.filterInput.Blur()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Interrupt):
		return m, tea.Quit
	case key.Matches(msg, m.keys.FilterDone):
		m.editingFilter = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	text := m.filterInput.Value()
	if text == tab.FilterText {
		return m, cmd
	}

	m.cursors[tab.ID] = 0
	return m, tea.Batch(cmd, m.store.SetFilter(tab.ID, text))
}

// updatePreview handles preview view updates
func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines := m.previewLines()
	maxScroll := len(lines) - (m.height - 8) // Account for title, borders, help
	if maxScroll < 0 {
		maxScroll = 0
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ClosePreview):
		m.viewMode = ViewBrowser
		m.previewScroll = 0
	case key.Matches(msg, m.keys.ScrollUp):
		if m.previewScroll > 0 {
			m.previewScroll--
		}
	case key.Matches(msg, m.keys.ScrollDown):
		if m.previewScroll < maxScroll {
			m.previewScroll++
		}
	case key.Matches(msg, m.keys.PageUp):
		m.previewScroll -= 10
		if m.previewScroll < 0 {
			m.previewScroll = 0
		}
	case key.Matches(msg, m.keys.PageDown):
		m.previewScroll += 10
		if m.previewScroll > maxScroll {
			m.previewScroll = maxScroll
		}
	case key.Matches(msg, m.keys.Top):
		m.previewScroll = 0
	case key.Matches(msg, m.keys.Bottom):
		m.previewScroll = maxScroll
	case key.Matches(msg, m.keys.PreviewDownload):
		if sel := m.selector.Current(); sel != nil {
			var tick tea.Cmd
			m, tick = m.withStatus(fmt.Sprintf("Downloading '%s'...", sel.Entry.Name), false)
			return m, tea.Batch(tick, m.selector.Download(sel.FullPath))
		}
	}
	return m, nil
}

// updateHelp handles help view updates
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.CloseHelp):
		m.viewMode = ViewBrowser
	}
	return m, nil
}

func (m Model) switchTab(delta int) (tea.Model, tea.Cmd) {
	tabs := m.store.Tabs()
	if len(tabs) == 0 {
		return m, nil
	}
	current := 0
	for i, id := range tabs {
		if id == m.store.ActiveID() {
			current = i
		}
	}
	next := (current + delta + len(tabs)) % len(tabs)
	_ = m.store.SelectTab(tabs[next])
	return m, nil
}

func (m Model) clampCursor(id TabID) {
	tab, ok := m.store.Tab(id)
	if !ok {
		return
	}
	if m.cursors[id] >= len(tab.Entries) {
		m.cursors[id] = max(len(tab.Entries)-1, 0)
	}
}

// withStatus sets a transient status line and returns the command that clears it
func (m Model) withStatus(message string, isError bool) (Model, tea.Cmd) {
	m.statusSeq++
	m.statusMessage = message
	m.statusIsError = isError
	seq := m.statusSeq
	return m, tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m Model) setStatus(message string, isError bool) (tea.Model, tea.Cmd) {
	return m.withStatus(message, isError)
}

func (m Model) previewLines() []string {
	p := m.selector.Preview()
	if p.Kind != PreviewText || p.Content == "" {
		return nil
	}
	return strings.Split(p.Content, "\n")
}

// View renders the current view
func (m Model) View() string {
	switch m.viewMode {
	case ViewBrowser:
		return m.viewBrowser()
	case ViewPreview:
		return m.viewPreview()
	case ViewHelp:
		return m.viewHelp()
	}
	return ""
}

// viewBrowser renders the tabs, the active listing and the preview pane
func (m Model) viewBrowser() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Source: %s", m.source)))
	s.WriteString("\n\n")

	if m.fatalErr != nil {
		s.WriteString(errorStyle.Render(m.fatalErr.Error()))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("q: quit"))
		return m.frame(s.String())
	}

	tab := m.store.Active()
	if tab == nil {
		s.WriteString("Loading source paths...\n")
		return m.frame(s.String())
	}

	s.WriteString(m.viewTabs())
	s.WriteString("\n\n")

	list := m.viewListing(tab)
	pane := m.viewPreviewPane()
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", pane))
	s.WriteString("\n")

	if m.statusMessage != "" {
		style := successStyle
		if m.statusIsError {
			style = errorStyle
		}
		s.WriteString("\n")
		s.WriteString(style.Render(m.statusMessage))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.editingFilter {
		s.WriteString(helpStyle.Render("type to filter • ←/→: move • ctrl+w: delete word • ctrl+u: clear • enter/esc: done"))
	} else {
		s.WriteString(helpStyle.Render("tab: next tab • ↑/↓: move • enter: open • h: back • m: more • /: filter • s: sort • d: download • ?: help • q: quit"))
	}

	return m.frame(s.String())
}

func (m Model) viewTabs() string {
	var parts []string
	for _, id := range m.store.Tabs() {
		tab, _ := m.store.Tab(id)
		label := tab.Root
		if tab.Loading {
			label += " …"
		}
		if id == m.store.ActiveID() {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewListing(tab *TabState) string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("Current Path: %s\n", tab.CurrentPath))
	filter := tab.FilterText
	if m.editingFilter {
		filter = m.filterInput.View()
	} else if filter == "" {
		filter = "-"
	}
	s.WriteString(helpStyle.Render(fmt.Sprintf("Sort: %s • Icons: %s • Filter: %s", m.store.SortOrder(), m.iconSize, filter)))
	s.WriteString("\n\n")

	if tab.LastError != "" {
		s.WriteString(errorStyle.Render(tab.LastError))
		s.WriteString("\n\n")
	}

	if tab.Loading && len(tab.Entries) == 0 {
		s.WriteString("Loading files...\n")
		return lipgloss.NewStyle().Width(m.listWidth()).Render(s.String())
	}

	if len(tab.Entries) == 0 {
		s.WriteString("No files found in this location.\n")
		return lipgloss.NewStyle().Width(m.listWidth()).Render(s.String())
	}

	pos := m.cursors[tab.ID]
	start, end := visibleRange(pos, len(tab.Entries), m.listHeight())
	for i := start; i < end; i++ {
		line := m.renderRow(tab.Entries[i], i == pos)
		s.WriteString(line)
		s.WriteString("\n")
	}

	switch {
	case tab.Loading:
		s.WriteString(helpStyle.Render("Loading more..."))
		s.WriteString("\n")
	case tab.HasMore:
		s.WriteString(helpStyle.Render(fmt.Sprintf("%d loaded • m: load more", len(tab.Entries))))
		s.WriteString("\n")
	}

	return lipgloss.NewStyle().Width(m.listWidth()).Render(s.String())
}

func (m Model) renderRow(e Entry, selected bool) string {
	marker := " "
	if selected {
		marker = ">"
	}

	name := e.Name
	if e.IsDir() {
		name += "/"
	}

	icon := ""
	if m.iconSize != IconSmall {
		switch {
		case e.IsDir():
			icon = "📁 "
		case e.Thumbnail != "" || imageExtensions[strings.ToLower(path.Ext(e.Name))]:
			icon = "🖼  "
		default:
			icon = "📄 "
		}
	}

	var line string
	if e.IsDir() {
		line = fmt.Sprintf("%s %s%s", marker, icon, directoryStyle.Render(name))
	} else {
		line = fmt.Sprintf("%s %s%s", marker, icon, fileStyle.Render(name))
	}

	if m.iconSize >= IconLarge && e.HasSize {
		line += " (" + humanize.Bytes(uint64(e.Size)) + ")"
	}
	if m.iconSize == IconExtraLarge && !e.LastModified.IsZero() {
		line += " " + humanize.Time(e.LastModified)
	}

	if selected {
		line = selectedStyle.Render(line)
	}
	return line
}

func (m Model) viewPreviewPane() string {
	var s strings.Builder
	sel := m.selector.Current()
	if sel == nil {
		s.WriteString(helpStyle.Render("No file selected"))
		return previewStyle.Width(m.previewWidth()).Render(s.String())
	}

	s.WriteString(selectedStyle.Render(sel.Entry.Name))
	s.WriteString("\n")
	if sel.Entry.HasSize {
		s.WriteString(helpStyle.Render(humanize.Bytes(uint64(sel.Entry.Size))))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(m.previewBody(m.listHeight()))
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("enter/p: full preview • d: download • esc: clear"))
	return previewStyle.Width(m.previewWidth()).Render(s.String())
}

// previewBody renders at most maxLines of the preview content
func (m Model) previewBody(maxLines int) string {
	p := m.selector.Preview()
	switch {
	case p.Loading:
		return "Loading preview..."
	case p.Err != "":
		return errorStyle.Render(p.Err)
	case p.Kind == PreviewImage:
		return fmt.Sprintf("[%s image, %s]", p.MediaType, humanize.Bytes(uint64(p.Bytes)))
	case p.Kind == PreviewBinary:
		return p.Content
	}

	lines := m.previewLines()
	if len(lines) == 0 {
		return "[Empty file]"
	}
	if len(lines) > maxLines {
		lines = append(lines[:maxLines:maxLines], "…")
	}
	return strings.Join(lines, "\n")
}

// viewPreview renders the full screen preview of the selection
func (m Model) viewPreview() string {
	var s strings.Builder

	sel := m.selector.Current()
	name := ""
	if sel != nil {
		name = sel.FullPath
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf("Preview: %s", name)))
	s.WriteString("\n\n")

	lines := m.previewLines()
	if sel == nil || len(lines) == 0 {
		s.WriteString(previewStyle.Render(m.previewBody(m.height)))
	} else {
		visibleHeight := m.height - 8
		if visibleHeight < 1 {
			visibleHeight = 10
		}

		start := m.previewScroll
		if start > len(lines) {
			start = len(lines)
		}
		end := start + visibleHeight
		if end > len(lines) {
			end = len(lines)
		}

		var content strings.Builder
		for i, line := range lines[start:end] {
			content.WriteString(fmt.Sprintf("%4d │ %s\n", start+i+1, line))
		}
		if len(lines) > visibleHeight {
			content.WriteString(fmt.Sprintf("\n[Showing lines %d-%d of %d]", start+1, end, len(lines)))
		}
		s.WriteString(previewStyle.Render(content.String()))
	}

	if m.statusMessage != "" {
		style := successStyle
		if m.statusIsError {
			style = errorStyle
		}
		s.WriteString("\n")
		s.WriteString(style.Render(m.statusMessage))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("↑/k,↓/j: scroll • u/d: page up/down • g/G: top/bottom • D: download • ←/h/esc: back • q: quit"))

	return m.frame(s.String())
}

// viewHelp renders the help view
func (m Model) viewHelp() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("sourcetabs - Help"))
	s.WriteString("\n\n")

	help := `Tabs:
  tab/shift+tab  Next/previous source path
  1-9            Jump to a source path

Navigation:
  ↑/k, ↓/j       Move cursor (moving past the end loads more)
  enter/l/o      Enter directory or select file
  backspace/h    Go back to parent directory
  m              Load more entries
  r              Refresh current directory

Listing:
  /              Edit the filter of the current tab
  s              Toggle sort: last modified / name
  i              Cycle icon size

Files:
  enter/p        Full screen preview of the selected file
  d              Download file under cursor (or the selection)
  esc            Clear selection

  ?              Show this help
  q/ctrl+c       Quit application
`

	s.WriteString(help)
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc/?: back • q: quit"))

	return m.frame(s.String())
}

// frame centers content on screen once the terminal size is known
func (m Model) frame(content string) string {
	bordered := browserStyle.Render(content)
	if m.width > 0 && m.height > 0 {
		centered := centerStyle.Width(m.width).Render(bordered)
		return verticalCenterStyle.Height(m.height).Render(centered)
	}
	return bordered
}

func (m Model) listWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*55/100-4, 30)
}

func (m Model) previewWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width-m.listWidth()-10, 24)
}

func (m Model) listHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-16, 5)
}

// visibleRange returns the window of rows to draw so the cursor stays visible
func visibleRange(cursor, total, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}
