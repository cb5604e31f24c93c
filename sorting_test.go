package main

import (
	"testing"
	"time"
)

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"", SortByLastModified, false},
		{"last-modified", SortByLastModified, false},
		{"lastModified", SortByLastModified, false},
		{"name", SortByName, false},
		{"size", SortByLastModified, true},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortOrder(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSortOrderNextToggles(t *testing.T) {
	if SortByLastModified.Next() != SortByName || SortByName.Next() != SortByLastModified {
		t.Error("Next must toggle between the two orders")
	}
}

func TestSortByNameUsesCollation(t *testing.T) {
	entries := []Entry{
		fileAt("cherry", 1),
		fileAt("banana", 2),
		fileAt("Apple", 3),
		fileAt("éclair", 4),
		fileAt("date", 5),
	}
	newEntrySorter().sort(entries, SortByName)

	if got := names(entries); got != "Apple,banana,cherry,date,éclair" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestSortByLastModifiedIsStable(t *testing.T) {
	same := time.Unix(100, 0)
	entries := []Entry{
		{Name: "first", LastModified: same},
		{Name: "newest", LastModified: time.Unix(200, 0)},
		{Name: "second", LastModified: same},
		{Name: "oldest", LastModified: time.Unix(50, 0)},
	}
	newEntrySorter().sort(entries, SortByLastModified)

	if got := names(entries); got != "newest,first,second,oldest" {
		t.Errorf("unexpected order %s", got)
	}
}
