package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/display"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/export"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/lookup"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("wordfreq failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var configPath, runID string

	cmd := &cobra.Command{
		Use:   "wordfreq",
		Short: "Count words read up to the sentinel, then answer lookups",
		Long: `wordfreq reads one word per line until the line "end" or the end of
input, counting every occurrence. It then prints the word list and answers
lookups for each further line on stdin.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitConfig, err.Error())
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			if runID == "" {
				runID = strconv.FormatInt(time.Now().UnixNano(), 10)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, runID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&runID, "run-id", "", "identifier attached to logs and exports (default: start time)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, runID string, stdin io.Reader, stdout io.Writer) error {
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	ctx, root := tracing.Start(ctx, "run", runID)
	defer func() {
		root.End()
		root.Log(log)
	}()

	table, err := frequency.New(cfg.Table.Backend)
	if err != nil {
		return err
	}
	order, err := display.ParseOrder(cfg.Display.Order)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.NewRegistry())
	checker := health.NewChecker(2 * time.Second)

	stdinLines := source.NewReader(stdin)
	src, closeSource, err := openSource(cfg, stdinLines)
	if err != nil {
		return err
	}
	defer closeSource()

	fanout, closeSinks, err := openSinks(cfg, m, checker)
	if err != nil {
		return err
	}
	defer closeSinks()
	if fanout.Len() > 0 {
		if report := checker.Run(ctx); report.Status != health.StatusUp {
			for _, p := range report.Probes {
				if p.Status != health.StatusUp {
					log.Error("export backend down", "backend", p.Name, "error", p.Error)
				}
			}
			return apperrors.New(apperrors.ErrUnavailable, apperrors.ExitExport, "export backends not ready")
		}
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, m, checker.Routes())
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	opts := []ingestion.Option{ingestion.WithMetrics(m)}
	if cfg.Input.Validate {
		opts = append(opts, ingestion.WithValidator(validator.ValidateWord))
	}
	pipeline := ingestion.New(src, table, opts...)
	log.Info("reading words", "source", cfg.Input.Source, "backend", cfg.Table.Backend)
	ictx, ingestSpan := tracing.Start(ctx, "ingest", runID)
	sum, err := pipeline.Run(ictx)
	ingestSpan.Set("sent", sum.Sent)
	ingestSpan.Set("distinct", sum.Distinct)
	ingestSpan.End()
	if err != nil {
		return err
	}

	var exportErr error
	if fanout.Len() > 0 {
		ectx, cancel := context.WithTimeout(ctx, cfg.Export.Timeout)
		ectx, exportSpan := tracing.Start(ectx, "export", runID)
		exportErr = fanout.Export(ectx, export.NewSnapshot(runID, pipeline.Table()))
		exportSpan.End()
		cancel()
	}

	if cfg.Display.WordList {
		if err := display.WriteTable(stdout, pipeline.Table().Entries(), order); err != nil {
			return err
		}
	}
	if cfg.Display.Lookup {
		_, lookupSpan := tracing.Start(ctx, "lookup", runID)
		reader := lookup.NewCachedReader(pipeline.Table(), cfg.Display.LookupCache)
		found, err := lookup.NewSession(reader, stdinLines, stdout, m).Run(ctx)
		lookupSpan.Set("found", found)
		lookupSpan.End()
		if err != nil {
			return err
		}
		if err := display.WriteTotal(stdout, found); err != nil {
			return err
		}
	}
	return exportErr
}

func openSource(cfg *config.Config, stdinLines *source.Reader) (ingestion.LineSource, func(), error) {
	switch cfg.Input.Source {
	case "file":
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return nil, nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitConfig, "opening input: %v", err)
		}
		return source.NewReader(f), func() { f.Close() }, nil
	case "kafka":
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Words)
		closeFn := func() {
			if err := consumer.Close(); err != nil {
				slog.Error("closing kafka consumer", "error", err)
			}
		}
		return source.NewKafka(consumer, cfg.Input.IdleTimeout), closeFn, nil
	default:
		return stdinLines, func() {}, nil
	}
}

func openSinks(cfg *config.Config, m *metrics.Metrics, checker *health.Checker) (*export.Fanout, func(), error) {
	var sinks []export.Sink
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Error("closing export backend", "error", err)
			}
		}
	}

	for _, name := range cfg.Export.Sinks {
		switch name {
		case "redis":
			client, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
			}
			closers = append(closers, client.Close)
			checker.Register("redis", client)
			sinks = append(sinks, export.NewRedis(client, cfg.Redis.KeyTTL))
		case "postgres":
			db, err := postgres.New(cfg.Postgres)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
			}
			closers = append(closers, db.Close)
			checker.Register("postgres", db)
			sinks = append(sinks, export.NewPostgres(db))
		case "kafka":
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Frequencies)
			closers = append(closers, producer.Close)
			checker.Register("kafka", producer)
			sinks = append(sinks, export.NewKafka(producer))
		}
	}

	retry := resilience.RetryConfig{
		MaxAttempts:  cfg.Export.MaxAttempts,
		InitialDelay: cfg.Export.InitialDelay,
	}
	return export.NewFanout(retry, m, sinks...), closeAll, nil
}
