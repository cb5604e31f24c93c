package main

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder is the global ordering applied to loaded entries
type SortOrder int

const (
	SortByLastModified SortOrder = iota
	SortByName
)

func (o SortOrder) String() string {
	switch o {
	case SortByName:
		return "name"
	default:
		return "last-modified"
	}
}

// Next returns the other sort order, for toggling
func (o SortOrder) Next() SortOrder {
	if o == SortByName {
		return SortByLastModified
	}
	return SortByName
}

// ParseSortOrder accepts the names used in config files and flags
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "last-modified", "lastModified", "modified":
		return SortByLastModified, nil
	case "name":
		return SortByName, nil
	}
	return SortByLastModified, fmt.Errorf("unknown sort order %q (want last-modified or name)", s)
}

// entrySorter orders entries. Not safe for concurrent use; the collator keeps
// scratch buffers.
type entrySorter struct {
	collator *collate.Collator
}

func newEntrySorter() *entrySorter {
	return &entrySorter{collator: collate.New(language.Und)}
}

// sort orders entries in place. Both comparators are stable: entries that
// compare equal keep their relative order.
func (s *entrySorter) sort(entries []Entry, order SortOrder) {
	switch order {
	case SortByName:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return s.collator.CompareString(a.Name, b.Name)
		})
	default:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return b.LastModified.Compare(a.LastModified)
		})
	}
}
