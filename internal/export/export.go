// Package export writes a finished frequency table to external backends.
// Each sink receives the same Snapshot; Fanout drives them concurrently
// with retries. Exports are write-only: nothing in the process reads them
// back.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the finished table of one run.
type Snapshot struct {
	RunID      string
	Entries    []frequency.Entry
	Total      int
	CapturedAt time.Time
}

// NewSnapshot copies the table's entries. The table must no longer be
// written to.
func NewSnapshot(runID string, r frequency.Reader) Snapshot {
	return Snapshot{
		RunID:      runID,
		Entries:    r.Entries(),
		Total:      r.Total(),
		CapturedAt: time.Now().UTC(),
	}
}

type Sink interface {
	Name() string
	Export(ctx context.Context, snap Snapshot) error
}

// Fanout exports to every sink concurrently.
type Fanout struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewFanout(retry resilience.RetryConfig, m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		retry:   retry,
		metrics: m,
		logger:  slog.Default().With("component", "export"),
	}
}

func (f *Fanout) Len() int { return len(f.sinks) }

// Export runs all sinks to completion, even when some fail, and returns
// their errors joined and wrapped in ErrExportFailed.
func (f *Fanout) Export(ctx context.Context, snap Snapshot) error {
	errs := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, sink := range f.sinks {
		g.Go(func() error {
			errs[i] = f.exportOne(ctx, sink, snap)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrExportFailed, err)
	}
	return nil
}

func (f *Fanout) exportOne(ctx context.Context, sink Sink, snap Snapshot) error {
	ctx, span := tracing.Start(ctx, "export."+sink.Name(), snap.RunID)
	defer span.End()
	start := time.Now()
	err := resilience.Retry(ctx, "export-"+sink.Name(), f.retry, func(ctx context.Context) error {
		return sink.Export(ctx, snap)
	})
	status := "success"
	if err != nil {
		status = "error"
		span.Set("error", err.Error())
		f.logger.Error("export failed", "sink", sink.Name(), "error", err)
	} else {
		f.logger.Info("table exported",
			"sink", sink.Name(),
			"run_id", snap.RunID,
			"words", len(snap.Entries),
			"elapsed", time.Since(start),
		)
	}
	if f.metrics != nil {
		f.metrics.ExportsTotal.WithLabelValues(sink.Name(), status).Inc()
		f.metrics.ExportDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("%s: %w", sink.Name(), err)
	}
	return nil
}
