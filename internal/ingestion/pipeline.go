// Package ingestion drives one run of the word pipeline: a producer reads
// lines from a LineSource and hands them, one at a time, through a
// rendezvous channel to a single worker goroutine that records them into a
// frequency table. The sentinel word ends the run.
package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/rendezvous"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/metrics"
)

// LineSource yields one line per call. Any error, io.EOF included, ends the
// stream.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

type State int32

const (
	StateRunning State = iota
	StateSentinelSeen
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSentinelSeen:
		return "sentinel_seen"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Summary describes a finished run.
type Summary struct {
	Sent     int // words handed to the worker, sentinel excluded
	Skipped  int // lines rejected by the validator
	Recorded int
	Distinct int
	// ReadErr is the non-EOF read failure that ended the stream, if any. It
	// is informational; the run still completed normally.
	ReadErr error
	Elapsed time.Duration
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithValidator makes the producer drop lines for which validate returns an
// error. The sentinel is never validated.
func WithValidator(validate func(line string) error) Option {
	return func(p *Pipeline) { p.validate = validate }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline is single use: Run may be called once.
type Pipeline struct {
	source   LineSource
	table    frequency.Builder
	ch       *rendezvous.Channel[string]
	validate func(string) error
	metrics  *metrics.Metrics
	logger   *slog.Logger

	started  atomic.Bool
	state    atomic.Int32
	done     chan struct{}
	recorded int // written by the worker only, read after done closes
}

func New(source LineSource, table frequency.Builder, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		table:  table,
		ch:     rendezvous.New[string](),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Table returns the table the worker records into. Callers must not read it
// before Run has returned.
func (p *Pipeline) Table() frequency.Reader {
	return p.table
}

// Run reads until the sentinel, end of input or a read error, and returns
// once the worker has recorded every word and exited. Input failures are
// folded into normal termination; the only error is ErrPipelineUsed.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	if !p.started.CompareAndSwap(false, true) {
		return Summary{}, apperrors.ErrPipelineUsed
	}
	log := p.logger
	if log == nil {
		log = logger.FromContext(ctx).With("component", "ingestion")
	}
	start := time.Now()
	log.Info("ingestion started")

	go p.consume(log)
	sum := p.produce(ctx, log)
	<-p.done

	sum.Recorded = p.recorded
	sum.Distinct = p.table.Len()
	sum.Elapsed = time.Since(start)
	if p.metrics != nil {
		p.metrics.DistinctWords.Set(float64(sum.Distinct))
		p.metrics.IngestionDuration.Observe(sum.Elapsed.Seconds())
	}
	if sum.ReadErr != nil {
		log.Warn("input read failed, treated as end of stream", "error", sum.ReadErr)
	}
	log.Info("ingestion finished",
		"sent", sum.Sent,
		"skipped", sum.Skipped,
		"recorded", sum.Recorded,
		"distinct", sum.Distinct,
		"elapsed", sum.Elapsed,
	)
	return sum, nil
}

func (p *Pipeline) produce(ctx context.Context, log *slog.Logger) Summary {
	var sum Summary
	for {
		line, err := p.source.ReadLine(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sum.ReadErr = err
			}
			line = frequency.Sentinel
		} else if p.metrics != nil {
			p.metrics.LinesReadTotal.Inc()
		}

		if line != frequency.Sentinel && p.validate != nil {
			if verr := p.validate(line); verr != nil {
				sum.Skipped++
				if p.metrics != nil {
					p.metrics.LinesSkippedTotal.Inc()
				}
				log.Debug("line skipped", "error", verr)
				continue
			}
		}

		waitStart := time.Now()
		p.ch.Send(line)
		if p.metrics != nil {
			p.metrics.HandoffWait.Observe(time.Since(waitStart).Seconds())
		}
		if line == frequency.Sentinel {
			return sum
		}
		sum.Sent++
		if p.metrics != nil {
			p.metrics.WordsSentTotal.Inc()
		}
	}
}

func (p *Pipeline) consume(log *slog.Logger) {
	defer close(p.done)
	defer p.state.Store(int32(StateDone))

	for {
		word := p.ch.Receive()
		if word == frequency.Sentinel {
			p.state.Store(int32(StateSentinelSeen))
			log.Debug("sentinel received")
			return
		}
		p.table.Record(word)
		p.recorded++
		if p.metrics != nil {
			p.metrics.WordsRecordedTotal.Inc()
		}
	}
}
