// Package frequency holds the word -> occurrence-count table built by the
// indexing worker.
//
// Two backings are provided: Table (hash map, the default) and ListTable
// (slice of records with a linear scan per insert). They produce identical
// counts and differ only in cost and in the order Entries returns.
//
// Neither type is safe for concurrent use. The ingestion worker is the only
// writer, and readers must wait until ingestion has finished.
package frequency

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
)

// Sentinel terminates the word stream. It is a control value and is never
// recorded.
const Sentinel = "end"

// Entry is one distinct word and the number of times it was seen.
type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Reader is the read-only view handed to lookup and display code once
// ingestion has finished.
type Reader interface {
	Lookup(word string) (count int, ok bool)
	Len() int
	Total() int
	Entries() []Entry
}

// Builder is a Reader that can also record words.
type Builder interface {
	Reader
	Record(word string)
}

const (
	BackendMap  = "map"
	BackendList = "list"
)

// New returns an empty table for the named backing. An empty name selects
// the map.
func New(backend string) (Builder, error) {
	switch backend {
	case "", BackendMap:
		return NewTable(), nil
	case BackendList:
		return NewListTable(), nil
	default:
		return nil, fmt.Errorf("table backend %q: %w", backend, apperrors.ErrInvalidInput)
	}
}

// Table is the map-backed frequency table.
type Table struct {
	counts map[string]int
	total  int
}

func NewTable() *Table {
	return &Table{counts: make(map[string]int)}
}

// Record counts one occurrence of word. Keys are compared byte for byte;
// nothing is trimmed or case-folded.
func (t *Table) Record(word string) {
	if word == Sentinel {
		return
	}
	t.counts[word]++
	t.total++
}

func (t *Table) Lookup(word string) (int, bool) {
	n, ok := t.counts[word]
	return n, ok
}

func (t *Table) Len() int { return len(t.counts) }

// Total is the sum of all counts, i.e. the number of words recorded.
func (t *Table) Total() int { return t.total }

// Entries returns every word in byte-wise ascending order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.counts))
	for w, n := range t.counts {
		entries = append(entries, Entry{Word: w, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Word < entries[j].Word
	})
	return entries
}
