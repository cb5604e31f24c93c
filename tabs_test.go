package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// fakeService serves directories from memory and records every list request
type fakeService struct {
	mu       sync.Mutex
	roots    []string
	rootsErr error
	dirs     map[string][]Entry
	previews map[string]string
	files    map[string]string
	fail     func(req ListRequest) error
	requests []ListRequest
}

func newFakeService() *fakeService {
	return &fakeService{
		dirs:     make(map[string][]Entry),
		previews: make(map[string]string),
		files:    make(map[string]string),
	}
}

func (f *fakeService) ListRoots(ctx context.Context) ([]string, error) {
	return f.roots, f.rootsErr
}

func (f *fakeService) List(ctx context.Context, req ListRequest) (*Listing, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.fail != nil {
		if err := f.fail(req); err != nil {
			return nil, err
		}
	}
	entries, ok := f.dirs[req.Path]
	if !ok {
		return nil, &ServiceError{Op: "list", Path: req.Path, Status: 404, Kind: ErrNotFound}
	}
	var matched []Entry
	for _, e := range entries {
		if req.Filter == "" || strings.Contains(strings.ToLower(e.Name), strings.ToLower(req.Filter)) {
			matched = append(matched, e)
		}
	}
	items, hasMore := paginate(matched, req.Page, req.Limit)
	return &Listing{Items: append([]Entry(nil), items...), HasMore: hasMore}, nil
}

func (f *fakeService) Preview(ctx context.Context, p string) (string, error) {
	content, ok := f.previews[p]
	if !ok {
		return "", &ServiceError{Op: "preview", Path: p, Status: 404, Kind: ErrNotFound}
	}
	return content, nil
}

func (f *fakeService) Download(ctx context.Context, p string) (*Download, error) {
	content, ok := f.files[p]
	if !ok {
		return nil, &ServiceError{Op: "download", Path: p, Status: 404, Kind: ErrNotFound}
	}
	return &Download{Body: io.NopCloser(strings.NewReader(content)), Filename: p[strings.LastIndex(p, "/")+1:], Size: int64(len(content))}, nil
}

func (f *fakeService) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// memorySink keeps downloads in memory
type memorySink struct {
	mu    sync.Mutex
	saved map[string]string
}

func (s *memorySink) Save(dl *Download) (string, error) {
	defer dl.Body.Close()
	data, err := io.ReadAll(dl.Body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]string)
	}
	s.saved[dl.Filename] = string(data)
	return "/tmp/" + dl.Filename, nil
}

func fileAt(name string, unix int64) Entry {
	return Entry{Name: name, Type: EntryFile, LastModified: time.Unix(unix, 0), Size: 10, HasSize: true}
}

func dirAt(name string, unix int64) Entry {
	return Entry{Name: name, Type: EntryDirectory, LastModified: time.Unix(unix, 0)}
}

func newTestStore(svc FileService, pageSize int, order SortOrder) (*TabStore, *Selector) {
	sel := NewSelector(context.Background(), svc, &memorySink{}, time.Second, zerolog.Nop())
	store := NewTabStore(context.Background(), svc, sel, StoreOptions{
		PageSize:  pageSize,
		SortOrder: order,
		Timeout:   time.Second,
		Logger:    zerolog.Nop(),
	})
	return store, sel
}

// runCmd executes a command and every command it batches, returning the
// messages in issue order
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(t, c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func listingMsg(t *testing.T, cmd tea.Cmd) listingLoadedMsg {
	t.Helper()
	msgs := runCmd(t, cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg, ok := msgs[0].(listingLoadedMsg)
	if !ok {
		t.Fatalf("expected listingLoadedMsg, got %T", msgs[0])
	}
	return msg
}

func names(entries []Entry) string {
	var parts []string
	for _, e := range entries {
		parts = append(parts, e.Name)
	}
	return strings.Join(parts, ",")
}

// initStore creates tabs for roots and applies their first pages
func initStore(t *testing.T, store *TabStore, roots ...string) {
	t.Helper()
	for _, msg := range runCmd(t, store.Initialize(roots)) {
		if !store.ApplyListing(msg.(listingLoadedMsg)) {
			t.Fatalf("initial listing not applied: %+v", msg)
		}
	}
}

func TestInitializeOutOfOrderReplies(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/a"] = []Entry{fileAt("a1", 1)}
	svc.dirs["/b"] = []Entry{fileAt("b1", 1), fileAt("b2", 2)}
	store, _ := newTestStore(svc, 20, SortByLastModified)

	msgs := runCmd(t, store.Initialize([]string{"/a", "/b"}))
	if len(msgs) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(msgs))
	}

	// deliver the second tab's reply first
	for i := len(msgs) - 1; i >= 0; i-- {
		if !store.ApplyListing(msgs[i].(listingLoadedMsg)) {
			t.Fatalf("reply %d was not applied", i)
		}
	}

	tabs := store.Tabs()
	if len(tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(tabs))
	}
	a, _ := store.Tab(tabs[0])
	b, _ := store.Tab(tabs[1])
	if a.Root != "/a" || names(a.Entries) != "a1" {
		t.Errorf("tab /a: root=%s entries=%s", a.Root, names(a.Entries))
	}
	if b.Root != "/b" || names(b.Entries) != "b2,b1" {
		t.Errorf("tab /b: root=%s entries=%s", b.Root, names(b.Entries))
	}
	if store.ActiveID() != tabs[0] {
		t.Errorf("expected first tab active, got %d", store.ActiveID())
	}
	if a.Loading || b.Loading {
		t.Error("tabs still loading after replies")
	}
}

func TestSelectTabDoesNotFetch(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/a"] = nil
	svc.dirs["/b"] = nil
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/a", "/b")

	before := svc.requestCount()
	if err := store.SelectTab(store.Tabs()[1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Active().Root != "/b" {
		t.Errorf("expected /b active, got %s", store.Active().Root)
	}
	if svc.requestCount() != before {
		t.Error("SelectTab issued a request")
	}
	if err := store.SelectTab(42); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
}

func TestStaleNavigationReplyDropped(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{dirAt("x", 2), fileAt("top", 1)}
	svc.dirs["/r/x"] = []Entry{fileAt("inner", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	intoCmd, err := store.NavigateInto(id, "x")
	if err != nil {
		t.Fatalf("NavigateInto: %v", err)
	}
	backCmd, err := store.NavigateBack(id)
	if err != nil {
		t.Fatalf("NavigateBack: %v", err)
	}

	back := listingMsg(t, backCmd)
	into := listingMsg(t, intoCmd)

	if !store.ApplyListing(back) {
		t.Fatal("latest reply was not applied")
	}
	if store.ApplyListing(into) {
		t.Fatal("superseded reply was applied")
	}

	tab := store.Active()
	if tab.CurrentPath != "/r" {
		t.Errorf("expected /r, got %s", tab.CurrentPath)
	}
	if names(tab.Entries) != "x,top" {
		t.Errorf("expected root entries, got %s", names(tab.Entries))
	}
}

func TestNavigateIntoRequiresDirectory(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("f", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")

	if _, err := store.NavigateInto(store.ActiveID(), "f"); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory for a file, got %v", err)
	}
	if _, err := store.NavigateInto(store.ActiveID(), "missing"); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory for a missing entry, got %v", err)
	}
}

func TestNavigateBackStopsAtRoot(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{dirAt("x", 1)}
	svc.dirs["/r/x"] = []Entry{dirAt("y", 1)}
	svc.dirs["/r/x/y"] = nil
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	for _, dir := range []string{"x", "y"} {
		cmd, err := store.NavigateInto(id, dir)
		if err != nil {
			t.Fatalf("NavigateInto %s: %v", dir, err)
		}
		store.ApplyListing(listingMsg(t, cmd))
	}
	if got := store.Active().CurrentPath; got != "/r/x/y" {
		t.Fatalf("expected /r/x/y, got %s", got)
	}

	for _, want := range []string{"/r/x", "/r"} {
		cmd, err := store.NavigateBack(id)
		if err != nil {
			t.Fatalf("NavigateBack: %v", err)
		}
		store.ApplyListing(listingMsg(t, cmd))
		if got := store.Active().CurrentPath; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}

	if _, err := store.NavigateBack(id); !errors.Is(err, ErrAtRoot) {
		t.Errorf("expected ErrAtRoot, got %v", err)
	}
}

func TestLoadMoreNoop(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 3), fileAt("b", 2), fileAt("c", 1)}
	store, _ := newTestStore(svc, 2, SortByLastModified)
	msgs := runCmd(t, store.Initialize([]string{"/r"}))
	id := store.ActiveID()

	// still loading page 1
	if cmd := store.LoadMore(id); cmd != nil {
		t.Fatal("LoadMore issued a request while loading")
	}
	store.ApplyListing(msgs[0].(listingLoadedMsg))

	cmd := store.LoadMore(id)
	if cmd == nil {
		t.Fatal("expected LoadMore to fetch page 2")
	}
	if store.LoadMore(id) != nil {
		t.Fatal("second LoadMore issued while page 2 in flight")
	}
	store.ApplyListing(listingMsg(t, cmd))

	tab := store.Active()
	if tab.HasMore {
		t.Fatal("expected no more pages")
	}
	if store.LoadMore(id) != nil {
		t.Error("LoadMore issued a request with HasMore=false")
	}
	if svc.requestCount() != 2 {
		t.Errorf("expected 2 requests, got %d", svc.requestCount())
	}
}

func TestLoadMoreKeepsAccumulatedEntriesSorted(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("c", 1), fileAt("d", 2), fileAt("a", 3), fileAt("b", 4)}
	store, _ := newTestStore(svc, 2, SortByName)
	initStore(t, store, "/r")
	id := store.ActiveID()

	if got := names(store.Active().Entries); got != "c,d" {
		t.Fatalf("page 1: expected c,d got %s", got)
	}

	store.ApplyListing(listingMsg(t, store.LoadMore(id)))
	tab := store.Active()
	if got := names(tab.Entries); got != "a,b,c,d" {
		t.Errorf("expected the whole list sorted a,b,c,d, got %s", got)
	}
	if tab.Page != 2 {
		t.Errorf("expected page 2, got %d", tab.Page)
	}
}

func TestLoadMoreSkipsDuplicateNames(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 2), fileAt("b", 1)}
	store, _ := newTestStore(svc, 1, SortByName)
	initStore(t, store, "/r")
	id := store.ActiveID()

	// the listing shifted between pages: "a" is served again on page 2
	svc.dirs["/r"] = []Entry{fileAt("new", 3), fileAt("a", 2), fileAt("b", 1)}
	store.ApplyListing(listingMsg(t, store.LoadMore(id)))

	if got := names(store.Active().Entries); got != "a" {
		t.Errorf("expected a single a, got %s", got)
	}
}

func TestLoadMoreFailureRollsBackPage(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 2), fileAt("b", 1)}
	store, _ := newTestStore(svc, 1, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	svc.fail = func(req ListRequest) error {
		if req.Page == 2 {
			return &ServiceError{Op: "list", Path: req.Path, Status: 500, Kind: ErrServiceUnavailable}
		}
		return nil
	}
	store.ApplyListing(listingMsg(t, store.LoadMore(id)))

	tab := store.Active()
	if tab.Page != 1 {
		t.Errorf("expected page rolled back to 1, got %d", tab.Page)
	}
	if names(tab.Entries) != "a" {
		t.Errorf("expected page 1 entries kept, got %s", names(tab.Entries))
	}
	if !tab.HasMore {
		t.Error("expected HasMore kept so the load can be retried")
	}
	if want := "Error fetching files for /r: file service unavailable"; tab.LastError != want {
		t.Errorf("expected %q, got %q", want, tab.LastError)
	}

	svc.fail = nil
	cmd := store.LoadMore(id)
	if cmd == nil {
		t.Fatal("expected retry to fetch")
	}
	store.ApplyListing(listingMsg(t, cmd))
	if tab.LastError != "" || names(tab.Entries) != "a,b" {
		t.Errorf("retry: error=%q entries=%s", tab.LastError, names(tab.Entries))
	}
}

func TestFetchErrorIsPerTab(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/ok"] = []Entry{fileAt("f", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)

	for _, msg := range runCmd(t, store.Initialize([]string{"/missing", "/ok"})) {
		store.ApplyListing(msg.(listingLoadedMsg))
	}

	missing, _ := store.Tab(store.Tabs()[0])
	ok, _ := store.Tab(store.Tabs()[1])
	if want := "Error fetching files for /missing: path not found"; missing.LastError != want {
		t.Errorf("expected %q, got %q", want, missing.LastError)
	}
	if ok.LastError != "" || names(ok.Entries) != "f" {
		t.Errorf("healthy tab affected: error=%q entries=%s", ok.LastError, names(ok.Entries))
	}
}

func TestSetFilterSupersedesInFlight(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("apple", 3), fileAt("apricot", 2), fileAt("banana", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	first := store.SetFilter(id, "a")
	second := store.SetFilter(id, "ap")

	late := listingMsg(t, first)
	latest := listingMsg(t, second)
	if late.tag.Filter != "a" {
		t.Fatalf("expected filter a in first request, got %q", late.tag.Filter)
	}

	store.ApplyListing(latest)
	if store.ApplyListing(late) {
		t.Fatal("reply for an old filter was applied")
	}

	tab := store.Active()
	if tab.FilterText != "ap" || names(tab.Entries) != "apple,apricot" {
		t.Errorf("filter=%q entries=%s", tab.FilterText, names(tab.Entries))
	}
}

func TestSetFilterIdempotent(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("apple", 2), fileAt("banana", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	store.ApplyListing(listingMsg(t, store.SetFilter(id, "an")))
	once := names(store.Active().Entries)
	store.ApplyListing(listingMsg(t, store.SetFilter(id, "an")))
	twice := names(store.Active().Entries)

	if once != "banana" || once != twice {
		t.Errorf("expected banana both times, got %q then %q", once, twice)
	}
	if store.Active().Page != 1 {
		t.Errorf("expected page 1, got %d", store.Active().Page)
	}
}

func TestSortByLastModifiedDescending(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("one", 3), fileAt("two", 1), fileAt("three", 2)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")

	if got := names(store.Active().Entries); got != "one,three,two" {
		t.Errorf("expected one,three,two got %s", got)
	}
}

func TestSwitchToLastModifiedSort(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 3), fileAt("b", 1), fileAt("c", 2)}
	store, _ := newTestStore(svc, 20, SortByName)
	initStore(t, store, "/r")

	if got := names(store.Active().Entries); got != "a,b,c" {
		t.Fatalf("expected name order a,b,c got %s", got)
	}
	before := svc.requestCount()
	store.SetSortOrder(SortByLastModified)

	if got := names(store.Active().Entries); got != "a,c,b" {
		t.Errorf("expected a,c,b (modified 3,2,1), got %s", got)
	}
	if svc.requestCount() != before {
		t.Error("sort change issued a request")
	}
}

func TestRefreshKeepsEntriesOnFailure(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	svc.fail = func(ListRequest) error {
		return &ServiceError{Op: "list", Path: "/r", Kind: ErrServiceUnavailable}
	}
	cmd := store.Refresh(id)
	if names(store.Active().Entries) != "a" {
		t.Error("entries dropped while refresh in flight")
	}
	store.ApplyListing(listingMsg(t, cmd))

	tab := store.Active()
	if names(tab.Entries) != "a" || tab.LastError == "" || tab.Loading {
		t.Errorf("entries=%s error=%q loading=%v", names(tab.Entries), tab.LastError, tab.Loading)
	}
}

func TestFailedRefreshKeepsLoadedPages(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 4), fileAt("b", 3), fileAt("c", 2), fileAt("d", 1)}
	store, _ := newTestStore(svc, 1, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	store.ApplyListing(listingMsg(t, store.LoadMore(id)))
	store.ApplyListing(listingMsg(t, store.LoadMore(id)))
	if tab := store.Active(); tab.Page != 3 || names(tab.Entries) != "a,b,c" {
		t.Fatalf("page=%d entries=%s", tab.Page, names(tab.Entries))
	}

	svc.fail = func(ListRequest) error {
		return &ServiceError{Op: "list", Path: "/r", Kind: ErrServiceUnavailable}
	}
	store.ApplyListing(listingMsg(t, store.Refresh(id)))

	tab := store.Active()
	if tab.Page != 3 || !tab.HasMore || names(tab.Entries) != "a,b,c" {
		t.Fatalf("after failed refresh: page=%d hasMore=%v entries=%s", tab.Page, tab.HasMore, names(tab.Entries))
	}

	svc.fail = nil
	cmd := store.LoadMore(id)
	if cmd == nil {
		t.Fatal("expected load more after failed refresh")
	}
	msg := listingMsg(t, cmd)
	if msg.tag.Page != 4 {
		t.Errorf("expected page 4 requested, got %d", msg.tag.Page)
	}
	store.ApplyListing(msg)
	if names(store.Active().Entries) != "a,b,c,d" {
		t.Errorf("expected d fetched, got %s", names(store.Active().Entries))
	}
}

func TestFailedRefreshDuringLoadMore(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 3), fileAt("b", 2), fileAt("c", 1)}
	store, _ := newTestStore(svc, 1, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	pending := store.LoadMore(id)
	svc.fail = func(ListRequest) error {
		return &ServiceError{Op: "list", Path: "/r", Kind: ErrServiceUnavailable}
	}
	refresh := store.Refresh(id)
	if store.ApplyListing(listingMsg(t, pending)) {
		t.Error("superseded load more applied")
	}
	store.ApplyListing(listingMsg(t, refresh))

	if tab := store.Active(); tab.Page != 1 || names(tab.Entries) != "a" {
		t.Errorf("page=%d entries=%s", tab.Page, names(tab.Entries))
	}
}

func TestSetSortOrderResortsWithoutFetch(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/a"] = []Entry{fileAt("b", 2), fileAt("a", 1)}
	svc.dirs["/b"] = []Entry{fileAt("z", 2), fileAt("y", 1)}
	store, _ := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/a", "/b")

	before := svc.requestCount()
	store.SetSortOrder(SortByName)

	if svc.requestCount() != before {
		t.Error("changing sort order issued a request")
	}
	a, _ := store.Tab(store.Tabs()[0])
	b, _ := store.Tab(store.Tabs()[1])
	if names(a.Entries) != "a,b" || names(b.Entries) != "y,z" {
		t.Errorf("expected every tab resorted, got %s and %s", names(a.Entries), names(b.Entries))
	}
}

func TestNavigateClearsSelection(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{dirAt("x", 2), fileAt("f.txt", 1)}
	svc.dirs["/r/x"] = nil
	svc.previews["/r/f.txt"] = "hello"
	store, sel := newTestStore(svc, 20, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()

	previewCmd, err := store.Open(id, "f.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sel.Current() == nil || sel.Current().FullPath != "/r/f.txt" {
		t.Fatalf("expected /r/f.txt selected, got %+v", sel.Current())
	}

	if _, err := store.Open(id, "x"); err != nil {
		t.Fatalf("Open dir: %v", err)
	}
	if sel.Current() != nil {
		t.Error("selection survived navigation")
	}

	// the preview started before navigating must not bring the selection back
	for _, msg := range runCmd(t, previewCmd) {
		if sel.ApplyPreview(msg.(previewLoadedMsg)) {
			t.Error("stale preview applied")
		}
	}
}

func TestRefreshResetsPagination(t *testing.T) {
	svc := newFakeService()
	svc.dirs["/r"] = []Entry{fileAt("a", 2), fileAt("b", 1)}
	store, _ := newTestStore(svc, 1, SortByLastModified)
	initStore(t, store, "/r")
	id := store.ActiveID()
	store.ApplyListing(listingMsg(t, store.LoadMore(id)))

	msg := listingMsg(t, store.Refresh(id))
	if msg.tag.Page != 1 {
		t.Errorf("expected refresh of page 1, got %d", msg.tag.Page)
	}
	store.ApplyListing(msg)
	if got := names(store.Active().Entries); got != "a" {
		t.Errorf("expected a, got %s", got)
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		path, root, want string
	}{
		{"/r/x/y", "/r", "/r/x"},
		{"/r/x", "/r", "/r"},
		{"/r", "/r", "/r"},
		{"/data/set/a", "/data/set", "/data/set"},
		{"photos/2024", "photos", "photos"},
	}
	for _, tt := range tests {
		if got := parentPath(tt.path, tt.root); got != tt.want {
			t.Errorf("parentPath(%q, %q) = %q, want %q", tt.path, tt.root, got, tt.want)
		}
	}
}

func TestJoinPath(t *testing.T) {
	if got := joinPath("/r/", "x"); got != "/r/x" {
		t.Errorf("expected /r/x, got %s", got)
	}
	if got := joinPath("/r", "x"); got != "/r/x" {
		t.Errorf("expected /r/x, got %s", got)
	}
}
