// Package display prints the finished word list and the lookup footer.
package display

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
)

type Order string

const (
	OrderAlpha Order = "alpha"
	OrderCount Order = "count"
)

func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderAlpha:
		return OrderAlpha, nil
	case OrderCount:
		return OrderCount, nil
	default:
		return "", fmt.Errorf("display order %q: %w", s, apperrors.ErrInvalidInput)
	}
}

// Sort returns a sorted copy of entries. Alpha is byte-wise ascending; count
// is descending count with ties broken alphabetically.
func Sort(entries []frequency.Entry, order Order) []frequency.Entry {
	out := make([]frequency.Entry, len(entries))
	copy(out, entries)
	switch order {
	case OrderCount:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Word < out[j].Word
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Word < out[j].Word
		})
	}
	return out
}

// WriteTable prints the "=== Word list:" block.
func WriteTable(w io.Writer, entries []frequency.Entry, order Order) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "\n=== Word list:\n")
	for _, e := range Sort(entries, order) {
		fmt.Fprintf(bw, "%s %d\n", e.Word, e.Count)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing word list: %w", err)
	}
	return nil
}

func WriteTotal(w io.Writer, found int) error {
	if _, err := fmt.Fprintf(w, "\n=== Total words found: %d\n", found); err != nil {
		return fmt.Errorf("writing total: %w", err)
	}
	return nil
}
