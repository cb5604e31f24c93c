package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// ErrNotFile is returned when a directory is offered as a selection
var ErrNotFile = errors.New("only files can be selected")

// Selection is the single file currently chosen for preview or download
type Selection struct {
	Tab      TabID
	Entry    Entry
	FullPath string
}

// PreviewKind tells the view how to present preview content
type PreviewKind int

const (
	PreviewText PreviewKind = iota
	PreviewImage
	PreviewBinary
)

// Preview is the preview state of the current selection
type Preview struct {
	Path    string
	Loading bool
	Err     string

	Kind    PreviewKind
	Content string
	// MediaType and Bytes describe image previews delivered as data URIs
	MediaType string
	Bytes     int
}

type previewLoadedMsg struct {
	seq     uint64
	path    string
	content string
	err     error
}

type downloadFinishedMsg struct {
	path    string
	savedTo string
	err     error
}

// DownloadSink stores a download stream somewhere and reports where
type DownloadSink interface {
	Save(dl *Download) (string, error)
}

// Selector tracks the one selected file and fetches its preview.
// Like TabStore it is driven from the bubbletea update loop only.
type Selector struct {
	service FileService
	sink    DownloadSink
	log     zerolog.Logger
	ctx     context.Context
	timeout time.Duration

	current *Selection
	preview Preview
	seq     uint64
	cancel  context.CancelFunc
}

// NewSelector creates a selector with nothing selected
func NewSelector(ctx context.Context, service FileService, sink DownloadSink, timeout time.Duration, log zerolog.Logger) *Selector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Selector{
		service: service,
		sink:    sink,
		log:     log.With().Str("component", "selection").Logger(),
		ctx:     ctx,
		timeout: timeout,
	}
}

// Current returns the selection, or nil
func (s *Selector) Current() *Selection {
	return s.current
}

// Preview returns the preview state of the current selection
func (s *Selector) Preview() Preview {
	return s.preview
}

// SelectFile makes entry, a file in dir, the selection and starts fetching
// its preview
func (s *Selector) SelectFile(tab TabID, dir string, entry Entry) (tea.Cmd, error) {
	if entry.IsDir() {
		return nil, fmt.Errorf("select %q: %w", entry.Name, ErrNotFile)
	}

	s.abort()
	s.seq++
	fullPath := joinPath(dir, entry.Name)
	s.current = &Selection{Tab: tab, Entry: entry, FullPath: fullPath}
	s.preview = Preview{Path: fullPath, Loading: true}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	s.cancel = cancel
	seq, service := s.seq, s.service

	return func() tea.Msg {
		defer cancel()
		content, err := service.Preview(ctx, fullPath)
		return previewLoadedMsg{seq: seq, path: fullPath, content: content, err: err}
	}, nil
}

// Clear drops the selection. A preview still in flight will be ignored.
func (s *Selector) Clear() {
	s.abort()
	s.seq++
	s.current = nil
	s.preview = Preview{}
}

// ApplyPreview stores a preview reply if it belongs to the current selection
func (s *Selector) ApplyPreview(msg previewLoadedMsg) bool {
	if s.current == nil || msg.seq != s.seq || msg.path != s.current.FullPath {
		s.log.Debug().Str("path", msg.path).Msg("dropping stale preview")
		return false
	}

	s.cancel = nil
	if msg.err != nil {
		s.preview = Preview{Path: msg.path, Err: "Error fetching file preview: " + describeError(msg.err)}
		s.log.Error().Err(msg.err).Str("path", msg.path).Msg("preview failed")
		return true
	}

	s.preview = classifyPreview(msg.path, msg.content)
	return true
}

// Download starts transferring fullPath into the download sink
func (s *Selector) Download(fullPath string) tea.Cmd {
	service, sink, ctx, log := s.service, s.sink, s.ctx, s.log
	return func() tea.Msg {
		dl, err := service.Download(ctx, fullPath)
		if err != nil {
			log.Error().Err(err).Str("path", fullPath).Msg("download failed")
			return downloadFinishedMsg{path: fullPath, err: err}
		}
		savedTo, err := sink.Save(dl)
		if err != nil {
			log.Error().Err(err).Str("path", fullPath).Msg("saving download failed")
			return downloadFinishedMsg{path: fullPath, err: err}
		}
		log.Info().Str("path", fullPath).Str("saved_to", savedTo).Msg("download complete")
		return downloadFinishedMsg{path: fullPath, savedTo: savedTo}
	}
}

func (s *Selector) abort() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// classifyPreview decides how preview content is shown. Images arrive as
// data URIs; anything that is not valid UTF-8 is treated as binary.
func classifyPreview(path, content string) Preview {
	p := Preview{Path: path, Kind: PreviewText, Content: content}

	if rest, ok := strings.CutPrefix(content, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if found && strings.HasSuffix(header, ";base64") {
			p.Kind = PreviewImage
			p.MediaType = strings.TrimSuffix(header, ";base64")
			p.Bytes = base64.StdEncoding.DecodedLen(len(payload))
			if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
				p.Bytes = len(data)
			}
			p.Content = ""
			return p
		}
	}

	if !utf8.ValidString(content) {
		p.Kind = PreviewBinary
		p.Bytes = len(content)
		p.Content = "[Binary file - cannot preview]"
	}
	return p
}
