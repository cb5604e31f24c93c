package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func newDownload(name, content string) *Download {
	return &Download{Body: io.NopCloser(strings.NewReader(content)), Filename: name, Size: int64(len(content))}
}

func TestDirSink_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	sink := DirSink{Dir: dir}

	target, err := sink.Save(newDownload("report.pdf", "%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != filepath.Join(dir, "report.pdf") {
		t.Errorf("unexpected target %s", target)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "%PDF" {
		t.Errorf("unexpected file content %q (%v)", data, err)
	}
}

func TestDirSink_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink := DirSink{Dir: dir}

	var targets []string
	for _, content := range []string{"one", "two", "three"} {
		target, err := sink.Save(newDownload("report.pdf", content))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		targets = append(targets, filepath.Base(target))
	}

	want := []string{"report.pdf", "report (1).pdf", "report (2).pdf"}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("download %d saved as %q, want %q", i, targets[i], want[i])
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if string(data) != "one" {
		t.Errorf("original file overwritten: %q", data)
	}
}

func TestDirSink_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	target, err := DirSink{Dir: dir}.Save(newDownload("../../evil.sh", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(target) != dir || filepath.Base(target) != "evil.sh" {
		t.Errorf("download escaped the directory: %s", target)
	}
}

func TestDirSink_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	dl := &Download{Body: io.NopCloser(failingReader{}), Filename: "big.iso", Size: -1}

	if _, err := (DirSink{Dir: dir}).Save(dl); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(dir, "big.iso")); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestDirSink_Progress(t *testing.T) {
	var progress bytes.Buffer
	sink := DirSink{
		Dir:      t.TempDir(),
		Progress: func(*Download) io.Writer { return &progress },
	}
	if _, err := sink.Save(newDownload("a.txt", "hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.String() != "hello" {
		t.Errorf("progress writer saw %q", progress.String())
	}
}

func TestSafeFilename(t *testing.T) {
	tests := map[string]string{
		"a.txt":         "a.txt",
		"dir/a.txt":     "a.txt",
		`C:\temp\a.txt`: "a.txt",
		"":              "download",
		"..":            "download",
		"/":             "download",
	}
	for in, want := range tests {
		if got := safeFilename(in); got != want {
			t.Errorf("safeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
