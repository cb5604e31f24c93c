package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

// HTTPService talks to the file service over its JSON API
type HTTPService struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

type sourcePathsResponse struct {
	Paths []string `json:"paths"`
}

type filesResponse struct {
	Items   []wireEntry `json:"items"`
	HasMore bool        `json:"has_more"`
}

type wireEntry struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	LastModified float64 `json:"lastModified"`
	Size         *int64  `json:"size"`
	ImageBase64  *string `json:"image_base64"`
}

type previewResponse struct {
	Content string `json:"content"`
}

// NewHTTPService creates a client for the service rooted at baseURL
func NewHTTPService(baseURL string, log zerolog.Logger) (*HTTPService, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	return &HTTPService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: cleanhttp.DefaultPooledClient(),
		log:        log.With().Str("component", "http-service").Logger(),
	}, nil
}

// ListRoots fetches the configured source paths
func (c *HTTPService) ListRoots(ctx context.Context) ([]string, error) {
	var resp sourcePathsResponse
	if err := c.getJSON(ctx, "list roots", "", "/api/source-paths", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Paths, nil
}

// List fetches one page of a directory listing
func (c *HTTPService) List(ctx context.Context, req ListRequest) (*Listing, error) {
	q := url.Values{}
	q.Set("path", req.Path)
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}

	var resp filesResponse
	if err := c.getJSON(ctx, "list", req.Path, "/api/files", q, &resp); err != nil {
		return nil, err
	}

	items := make([]Entry, 0, len(resp.Items))
	for _, w := range resp.Items {
		items = append(items, w.entry())
	}
	return &Listing{Items: items, HasMore: resp.HasMore}, nil
}

// Preview fetches the preview content of a file: text, or a data URI for images
func (c *HTTPService) Preview(ctx context.Context, p string) (string, error) {
	q := url.Values{}
	q.Set("path", p)

	var resp previewResponse
	if err := c.getJSON(ctx, "preview", p, "/api/preview", q, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Download opens the raw byte stream of a file. The caller closes Body.
func (c *HTTPService) Download(ctx context.Context, p string) (*Download, error) {
	q := url.Values{}
	q.Set("path", p)

	resp, err := c.do(ctx, "download", p, "/api/download", q)
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:     resp.Body,
		Filename: downloadFilename(resp.Header.Get("Content-Disposition"), p),
		Size:     resp.ContentLength,
	}, nil
}

func (c *HTTPService) getJSON(ctx context.Context, op, p, endpoint string, q url.Values, out interface{}) error {
	resp, err := c.do(ctx, op, p, endpoint, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Op: op, Path: p, Kind: ErrServiceUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do issues a single GET and maps failures onto the service error kinds.
// On success the caller owns resp.Body.
func (c *HTTPService) do(ctx context.Context, op, p, endpoint string, q url.Values) (*http.Response, error) {
	target := c.baseURL + endpoint
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("path", p).Msg("request failed")
		return nil, &ServiceError{Op: op, Path: p, Kind: ErrServiceUnavailable, Err: err}
	}

	c.log.Debug().
		Str("op", op).
		Str("path", p).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	detail := readErrorDetail(resp.Body)
	resp.Body.Close()

	kind := ErrServiceUnavailable
	if resp.StatusCode == http.StatusNotFound {
		kind = ErrNotFound
	}
	return nil, &ServiceError{Op: op, Path: p, Status: resp.StatusCode, Kind: kind, Err: detail}
}

// readErrorDetail pulls the {"detail": "..."} message the service sends with errors
func readErrorDetail(body io.Reader) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return nil
	}
	if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
		return fmt.Errorf("%s", payload.Detail)
	}
	return nil
}

func (w wireEntry) entry() Entry {
	e := Entry{
		Name: w.Name,
		Type: EntryFile,
	}
	if w.Type == string(EntryDirectory) {
		e.Type = EntryDirectory
	}
	if w.LastModified > 0 {
		sec, frac := math.Modf(w.LastModified)
		e.LastModified = time.Unix(int64(sec), int64(frac*1e9))
	}
	if w.Size != nil {
		e.Size = *w.Size
		e.HasSize = true
	}
	if w.ImageBase64 != nil {
		e.Thumbnail = *w.ImageBase64
	}
	return e
}

// downloadFilename picks the file name hinted by Content-Disposition,
// falling back to the last segment of the requested path
func downloadFilename(disposition, requested string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := path.Base(params["filename"]); params["filename"] != "" && name != "/" && name != "." {
				return name
			}
		}
	}
	return path.Base(requested)
}
