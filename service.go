package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// EntryType distinguishes files from directories in a listing
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one file or directory record returned by a listing call.
// Names are unique within a single directory.
type Entry struct {
	Name         string
	Type         EntryType
	LastModified time.Time
	Size         int64
	HasSize      bool
	// Thumbnail holds the base64 image payload some services inline for pictures
	Thumbnail string
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Type == EntryDirectory
}

// ListRequest selects one page of a directory listing
type ListRequest struct {
	Path   string
	Page   int
	Limit  int
	Filter string
}

// Listing is one page of directory entries
type Listing struct {
	Items   []Entry
	HasMore bool
}

// Download is an open byte stream for a remote file
type Download struct {
	Body     io.ReadCloser
	Filename string
	// Size is -1 when the service did not report a length
	Size int64
}

// FileService is the remote file service the browser talks to.
// Every call is a single attempt; callers decide whether to re-issue.
type FileService interface {
	ListRoots(ctx context.Context) ([]string, error)
	List(ctx context.Context, req ListRequest) (*Listing, error)
	Preview(ctx context.Context, path string) (string, error)
	Download(ctx context.Context, path string) (*Download, error)
}

var (
	// ErrNotFound is returned when the requested path does not exist
	ErrNotFound = errors.New("not found")
	// ErrServiceUnavailable covers network failures and server errors
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ServiceError describes a failed call to the file service.
// It unwraps to one of the sentinel errors above and to the underlying cause.
type ServiceError struct {
	Op     string
	Path   string
	Status int
	Kind   error
	Err    error
}

func (e *ServiceError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// describeError turns a service error into the short message shown inline
func describeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, ErrNotFound):
		return "path not found"
	case errors.Is(err, ErrServiceUnavailable):
		return "file service unavailable"
	default:
		return err.Error()
	}
}
