package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// DirSink writes downloads into a local directory without overwriting
// existing files: "report.pdf" becomes "report (1).pdf" on collision
type DirSink struct {
	Dir string
	// Progress, when set, is called with each download before copying and
	// may wrap the destination writer
	Progress func(dl *Download) io.Writer
}

// Save copies the download stream to disk and closes it
func (s DirSink) Save(dl *Download) (string, error) {
	defer dl.Body.Close()

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	f, target, err := createUnique(dir, safeFilename(dl.Filename))
	if err != nil {
		return "", err
	}

	var w io.Writer = f
	if s.Progress != nil {
		if pw := s.Progress(dl); pw != nil {
			w = io.MultiWriter(f, pw)
		}
	}

	if _, err := io.Copy(w, dl.Body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write file '%s': %w", target, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write file '%s': %w", target, err)
	}
	return target, nil
}

// progressBar renders a byte progress bar for a download on stderr
func progressBar(dl *Download) io.Writer {
	return progressbar.NewOptions64(dl.Size,
		progressbar.OptionSetDescription(dl.Filename),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// safeFilename keeps only the last path element of a server supplied name
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "download"
	}
	return name
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(dir, candidate)
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, target, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create file '%s': %w", target, err)
		}
	}
	return nil, "", fmt.Errorf("too many files named '%s' in %s", name, dir)
}
