// Package lookup answers point queries against a finished frequency table,
// either one at a time (Find) or as an interactive prompt loop (Session).
package lookup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/metrics"
)

const prompt = "\nEnter a word for lookup:"

type Result struct {
	Word  string
	Count int
	Found bool
}

// Find looks word up by exact match. It never modifies the table.
func Find(r frequency.Reader, word string) Result {
	n, ok := r.Lookup(word)
	return Result{Word: word, Count: n, Found: ok}
}

func (r Result) String() string {
	if r.Found {
		return fmt.Sprintf("SUCCESS: '%s' was present %d times in the initial word list", r.Word, r.Count)
	}
	return fmt.Sprintf("'%s' was NOT found in the initial word list", r.Word)
}

// LineReader is satisfied by source.Reader. Sharing one reader with the
// ingestion pipeline lets lookups continue on the lines after the sentinel.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Session prompts for words on out and answers each line read from in until
// in is exhausted.
type Session struct {
	table   frequency.Reader
	in      LineReader
	out     io.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger
	found   int
}

func NewSession(table frequency.Reader, in LineReader, out io.Writer, m *metrics.Metrics) *Session {
	return &Session{
		table:   table,
		in:      in,
		out:     out,
		metrics: m,
		logger:  slog.Default().With("component", "lookup"),
	}
}

// Run loops until the input ends and returns the number of successful
// lookups. Only a failure to write the output is returned as an error.
func (s *Session) Run(ctx context.Context) (int, error) {
	for {
		if _, err := io.WriteString(s.out, prompt); err != nil {
			return s.found, fmt.Errorf("writing prompt: %w", err)
		}
		word, err := s.in.ReadLine(ctx)
		if err != nil {
			s.logger.Debug("lookup input closed", "reason", err, "found", s.found)
			return s.found, nil
		}
		res := Find(s.table, word)
		label := "not_found"
		if res.Found {
			s.found++
			label = "found"
		}
		if s.metrics != nil {
			s.metrics.LookupsTotal.WithLabelValues(label).Inc()
		}
		if _, err := fmt.Fprintln(s.out, res.String()); err != nil {
			return s.found, fmt.Errorf("writing lookup result: %w", err)
		}
	}
}

// Found is the number of successful lookups so far.
func (s *Session) Found() int { return s.found }
