// Package tracing times the phases of a run. Spans nest through the context
// and the finished tree is written to a slog.Logger.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanKey struct{}

type Span struct {
	Name     string
	RunID    string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []any
}

// Start opens a span under the one already in ctx, or a root span tagged
// with runID when ctx has none.
func Start(ctx context.Context, name, runID string) (context.Context, *Span) {
	s := &Span{Name: name, RunID: runID, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.RunID = parent.RunID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.Start)
	s.mu.Unlock()
}

// Set attaches a key/value pair that is logged with the span.
func (s *Span) Set(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes one debug record per span, depth first.
func (s *Span) Log(log *slog.Logger) {
	s.log(log, 0)
}

func (s *Span) log(log *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"run_id", s.RunID,
		"span", s.Name,
		"depth", depth,
		"duration", s.Duration,
	}, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	log.Debug("span", attrs...)
	for _, c := range children {
		c.log(log, depth+1)
	}
}
