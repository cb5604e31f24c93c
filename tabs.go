package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of entries requested per page
const DefaultPageSize = 20

var (
	ErrUnknownTab   = errors.New("unknown tab")
	ErrNotDirectory = errors.New("not a directory in the current listing")
	ErrAtRoot       = errors.New("already at the root of this tab")
)

// TabID identifies a tab for the whole session, independent of its position
type TabID int

// TabState is the browsing state of one root path
type TabState struct {
	ID          TabID
	Root        string
	CurrentPath string
	Entries     []Entry
	Page        int
	HasMore     bool
	Loading     bool
	FilterText  string
	LastError   string

	// seq is the number of the latest listing request issued for this tab.
	// A reply is applied only while its tag still carries this number.
	seq    uint64
	cancel context.CancelFunc
	// restore is the page in effect before a pending refresh
	restore int
}

// AtRoot reports whether the tab shows its root directory
func (t *TabState) AtRoot() bool {
	return t.CurrentPath == t.Root
}

// Lookup finds a loaded entry by name
func (t *TabState) Lookup(name string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// fetchTag records what a listing request was issued for
type fetchTag struct {
	Tab    TabID
	Seq    uint64
	Path   string
	Filter string
	Page   int
}

type rootsLoadedMsg struct {
	roots []string
	err   error
}

type listingLoadedMsg struct {
	tag     fetchTag
	listing *Listing
	err     error
}

// TabStore owns every TabState and the transitions between them.
// It must only be used from the bubbletea update loop; commands it returns
// perform network I/O and report back through messages.
type TabStore struct {
	service   FileService
	selection *Selector
	sorter    *entrySorter
	log       zerolog.Logger

	ctx       context.Context
	timeout   time.Duration
	pageSize  int
	sortOrder SortOrder

	order  []TabID
	tabs   map[TabID]*TabState
	active TabID
}

// StoreOptions configures a TabStore
type StoreOptions struct {
	PageSize  int
	SortOrder SortOrder
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// NewTabStore creates an empty store; call Initialize once roots are known
func NewTabStore(ctx context.Context, service FileService, selection *Selector, opts StoreOptions) *TabStore {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &TabStore{
		service:   service,
		selection: selection,
		sorter:    newEntrySorter(),
		log:       opts.Logger.With().Str("component", "tabs").Logger(),
		ctx:       ctx,
		timeout:   opts.Timeout,
		pageSize:  opts.PageSize,
		sortOrder: opts.SortOrder,
		tabs:      make(map[TabID]*TabState),
	}
}

// LoadRoots fetches the list of root paths
func (s *TabStore) LoadRoots() tea.Cmd {
	ctx, service, timeout := s.ctx, s.service, s.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		roots, err := service.ListRoots(ctx)
		return rootsLoadedMsg{roots: roots, err: err}
	}
}

// Initialize creates one tab per root and requests the first page of each.
// The returned command runs the fetches concurrently.
func (s *TabStore) Initialize(roots []string) tea.Cmd {
	for _, tab := range s.tabs {
		if tab.cancel != nil {
			tab.cancel()
		}
	}
	s.order = make([]TabID, 0, len(roots))
	s.tabs = make(map[TabID]*TabState, len(roots))
	s.active = 0

	cmds := make([]tea.Cmd, 0, len(roots))
	for i, root := range roots {
		tab := &TabState{
			ID:          TabID(i),
			Root:        root,
			CurrentPath: root,
			Page:        1,
		}
		s.order = append(s.order, tab.ID)
		s.tabs[tab.ID] = tab
		cmds = append(cmds, s.fetch(tab))
	}
	s.log.Info().Int("tabs", len(roots)).Msg("tabs initialized")
	return tea.Batch(cmds...)
}

// Tabs returns the tab identifiers in root order
func (s *TabStore) Tabs() []TabID {
	return s.order
}

// Tab returns the state of a tab
func (s *TabStore) Tab(id TabID) (*TabState, bool) {
	tab, ok := s.tabs[id]
	return tab, ok
}

// Active returns the active tab, or nil before Initialize
func (s *TabStore) Active() *TabState {
	return s.tabs[s.active]
}

// ActiveID returns the identifier of the active tab
func (s *TabStore) ActiveID() TabID {
	return s.active
}

// SortOrder returns the global sort order
func (s *TabStore) SortOrder() SortOrder {
	return s.sortOrder
}

// SelectTab moves the active tab pointer. It never fetches.
func (s *TabStore) SelectTab(id TabID) error {
	if _, ok := s.tabs[id]; !ok {
		return fmt.Errorf("select tab %d: %w", id, ErrUnknownTab)
	}
	s.active = id
	return nil
}

// NavigateInto descends into a directory of the tab's current listing
func (s *TabStore) NavigateInto(id TabID, childName string) (tea.Cmd, error) {
	tab, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry, ok := tab.Lookup(childName)
	if !ok || !entry.IsDir() {
		return nil, fmt.Errorf("open %q: %w", childName, ErrNotDirectory)
	}

	tab.CurrentPath = joinPath(tab.CurrentPath, childName)
	s.reset(tab)
	s.selection.Clear()
	s.log.Debug().Int("tab", int(id)).Str("path", tab.CurrentPath).Msg("navigate into")
	return s.fetch(tab), nil
}

// NavigateBack moves the tab to the parent directory, never above its root
func (s *TabStore) NavigateBack(id TabID) (tea.Cmd, error) {
	tab, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if tab.AtRoot() {
		return nil, ErrAtRoot
	}

	tab.CurrentPath = parentPath(tab.CurrentPath, tab.Root)
	s.reset(tab)
	s.selection.Clear()
	s.log.Debug().Int("tab", int(id)).Str("path", tab.CurrentPath).Msg("navigate back")
	return s.fetch(tab), nil
}

// LoadMore requests the next page. It is a no-op while the tab is loading or
// when the service reported no further pages.
func (s *TabStore) LoadMore(id TabID) tea.Cmd {
	tab, ok := s.tabs[id]
	if !ok || tab.Loading || !tab.HasMore {
		return nil
	}
	tab.Page++
	return s.fetch(tab)
}

// SetFilter changes the tab's filter text and refetches from page 1.
// Any request still in flight for the old filter is superseded.
func (s *TabStore) SetFilter(id TabID, text string) tea.Cmd {
	tab, ok := s.tabs[id]
	if !ok {
		return nil
	}
	tab.FilterText = text
	s.reset(tab)
	return s.fetch(tab)
}

// Refresh re-requests page 1 of the tab's current directory and filter.
// Loaded entries stay visible until the reply replaces them.
func (s *TabStore) Refresh(id TabID) tea.Cmd {
	tab, ok := s.tabs[id]
	if !ok {
		return nil
	}
	// restore is the last page actually received
	restore := tab.Page
	if tab.Loading {
		switch {
		case tab.restore > 0:
			restore = tab.restore
		case tab.Page > 1:
			restore = tab.Page - 1
		}
	}
	if len(tab.Entries) == 0 {
		restore = 0
	}
	tab.Page = 1
	cmd := s.fetch(tab)
	tab.restore = restore
	return cmd
}

// SetSortOrder re-sorts every tab's loaded entries. Nothing is refetched.
func (s *TabStore) SetSortOrder(order SortOrder) {
	s.sortOrder = order
	for _, id := range s.order {
		s.sorter.sort(s.tabs[id].Entries, order)
	}
}

// Open activates a row: directories are entered, files become the selection
func (s *TabStore) Open(id TabID, name string) (tea.Cmd, error) {
	tab, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry, ok := tab.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("open %q: no such entry", name)
	}
	if entry.IsDir() {
		return s.NavigateInto(id, name)
	}
	return s.selection.SelectFile(id, tab.CurrentPath, entry)
}

// ApplyListing merges a listing reply into its tab. Replies whose tag no
// longer matches the tab's state are dropped; the return value reports
// whether the reply was applied.
func (s *TabStore) ApplyListing(msg listingLoadedMsg) bool {
	tab, ok := s.tabs[msg.tag.Tab]
	if !ok {
		return false
	}
	if msg.tag.Seq != tab.seq ||
		msg.tag.Path != tab.CurrentPath ||
		msg.tag.Filter != tab.FilterText ||
		msg.tag.Page != tab.Page {
		s.log.Debug().
			Int("tab", int(msg.tag.Tab)).
			Uint64("seq", msg.tag.Seq).
			Uint64("current", tab.seq).
			Str("path", msg.tag.Path).
			Msg("dropping stale listing")
		return false
	}

	tab.Loading = false
	tab.cancel = nil

	if msg.err != nil {
		tab.LastError = fmt.Sprintf("Error fetching files for %s: %s", msg.tag.Path, describeError(msg.err))
		if msg.tag.Page > 1 {
			// the page was never received, so the same load-more can be retried
			tab.Page = msg.tag.Page - 1
		} else if tab.restore > 0 {
			// a failed refresh leaves the earlier pages in place
			tab.Page = tab.restore
		}
		tab.restore = 0
		s.log.Error().Err(msg.err).Int("tab", int(msg.tag.Tab)).Str("path", msg.tag.Path).Int("page", msg.tag.Page).Msg("listing failed")
		return true
	}

	tab.restore = 0
	items := msg.listing.Items
	if msg.tag.Page == 1 {
		tab.Entries = append([]Entry(nil), items...)
	} else {
		tab.Entries = mergeEntries(tab.Entries, items)
	}
	s.sorter.sort(tab.Entries, s.sortOrder)
	tab.HasMore = msg.listing.HasMore
	return true
}

func (s *TabStore) lookup(id TabID) (*TabState, error) {
	tab, ok := s.tabs[id]
	if !ok {
		return nil, fmt.Errorf("tab %d: %w", id, ErrUnknownTab)
	}
	return tab, nil
}

// reset returns a tab's pagination to its initial state for a new
// path or filter
func (s *TabStore) reset(tab *TabState) {
	tab.Entries = nil
	tab.Page = 1
	tab.HasMore = false
}

// fetch issues a listing request for the tab's current state. The previous
// request, if still running, is cancelled and its reply will be dropped.
func (s *TabStore) fetch(tab *TabState) tea.Cmd {
	if tab.cancel != nil {
		tab.cancel()
	}
	tab.seq++
	tab.Loading = true
	tab.LastError = ""
	tab.restore = 0

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	tab.cancel = cancel

	tag := fetchTag{
		Tab:    tab.ID,
		Seq:    tab.seq,
		Path:   tab.CurrentPath,
		Filter: tab.FilterText,
		Page:   tab.Page,
	}
	req := ListRequest{Path: tag.Path, Page: tag.Page, Limit: s.pageSize, Filter: tag.Filter}
	service := s.service

	return func() tea.Msg {
		defer cancel()
		listing, err := service.List(ctx, req)
		return listingLoadedMsg{tag: tag, listing: listing, err: err}
	}
}

// mergeEntries appends a page to the accumulated entries, skipping names
// already present
func mergeEntries(existing, page []Entry) []Entry {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e.Name] = struct{}{}
	}
	for _, e := range page {
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		existing = append(existing, e)
	}
	return existing
}

// joinPath appends one segment to a directory path
func joinPath(dir, name string) string {
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// parentPath drops the last segment of p, stopping at root
func parentPath(p, root string) string {
	i := strings.LastIndex(p, "/")
	if i < len(root) {
		return root
	}
	return p[:i]
}
