// Package watch rescans a fixed set of domains on a cron schedule.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
	"github.com/certwatch-app/cw-inspector/internal/notify"
	"github.com/certwatch-app/cw-inspector/internal/state"
)

// Scanner rescans a domain, bypassing any cached certificate
type Scanner interface {
	Rescan(ctx context.Context, domain string) (*inspector.ScanReport, error)
}

// Notifier delivers watch events
type Notifier interface {
	Send(ctx context.Context, ev notify.Event) error
}

// Options configures a Watcher
type Options struct {
	Schedule    string
	Domains     []string
	Concurrency int
}

// Summary counts the outcome of one watch run
type Summary struct {
	Scanned  int
	Failed   int
	Rotated  int
	Warnings int
}

// Watcher orchestrates scheduled rescans
type Watcher struct {
	scanner  Scanner
	notifier Notifier
	state    *state.Manager
	logger   *zap.Logger
	opts     Options
	// serializes runs triggered by the scheduler and RunOnce
	runMu sync.Mutex
}

// New creates a Watcher. notifier may be nil.
func New(opts Options, scanner Scanner, st *state.Manager, notifier Notifier, logger *zap.Logger) *Watcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Watcher{
		scanner:  scanner,
		notifier: notifier,
		state:    st,
		logger:   logger,
		opts:     opts,
	}
}

// Run performs an initial pass, then rescans on the schedule until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{w.logger.Sugar()})))
	if _, err := c.AddFunc(w.opts.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", w.opts.Schedule, err)
	}

	w.logger.Info("watch starting",
		zap.String("schedule", w.opts.Schedule),
		zap.Int("domains", len(w.opts.Domains)),
	)

	w.RunOnce(ctx)

	c.Start()
	<-ctx.Done()

	w.logger.Info("watch stopping")
	<-c.Stop().Done()
	return nil
}

// RunOnce rescans every domain once
func (w *Watcher) RunOnce(ctx context.Context) Summary {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	start := time.Now()
	var (
		mu      sync.Mutex
		summary Summary
	)

	g := new(errgroup.Group)
	g.SetLimit(w.opts.Concurrency)
	for _, domain := range w.opts.Domains {
		domain := domain
		g.Go(func() error {
			res := w.check(ctx, domain)

			mu.Lock()
			defer mu.Unlock()
			summary.Scanned++
			if res.failed {
				summary.Failed++
			}
			if res.rotated {
				summary.Rotated++
			}
			summary.Warnings += res.warnings
			return nil
		})
	}
	_ = g.Wait()

	w.state.Forget(w.keys())
	if err := w.state.Save(); err != nil {
		w.logger.Warn("failed to save watch state", zap.Error(err))
	}

	w.logger.Info("watch run complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("scanned", summary.Scanned),
		zap.Int("failed", summary.Failed),
		zap.Int("rotated", summary.Rotated),
		zap.Int("warnings", summary.Warnings),
	)

	return summary
}

type checkResult struct {
	warnings int
	failed   bool
	rotated  bool
}

func (w *Watcher) check(ctx context.Context, domain string) checkResult {
	report, err := w.scanner.Rescan(ctx, domain)
	if err != nil {
		w.logger.Error("watched domain failed",
			zap.String("domain", domain),
			zap.String("kind", string(inspector.KindOf(err))),
			zap.Error(err),
		)
		w.send(ctx, notify.FailureEvent(domain, err))
		return checkResult{failed: true}
	}

	fields := []zap.Field{
		zap.String("domain", report.Domain.String()),
		zap.String("expiry_status", string(report.ExpiryStatus)),
		zap.String("valid_to", report.Certificate.ValidTo),
	}
	if report.DaysRemaining != nil {
		fields = append(fields, zap.Int("days_remaining", *report.DaysRemaining))
		inspector.CertificateDaysUntilExpiry.WithLabelValues(report.Domain.String()).Set(float64(*report.DaysRemaining))
	}
	w.logger.Info("certificate checked", fields...)

	for _, warning := range report.Warnings {
		w.logger.Warn(warning.Message,
			zap.String("domain", report.Domain.String()),
			zap.String("warning", warning.Type),
		)
	}

	change := w.state.Record(report)
	if change.Rotated {
		w.logger.Info("certificate rotated",
			zap.String("domain", report.Domain.String()),
			zap.String("previous_serial", change.Previous.SerialNumber),
			zap.String("serial", report.Certificate.SerialNumber),
		)
		w.send(ctx, notify.RotationEvent(report, change.Previous.SerialNumber))
	} else {
		w.send(ctx, notify.ReportEvent(report))
	}

	return checkResult{warnings: len(report.Warnings), rotated: change.Rotated}
}

func (w *Watcher) send(ctx context.Context, ev notify.Event) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Send(ctx, ev); err != nil {
		w.logger.Warn("webhook delivery failed",
			zap.String("domain", ev.Domain),
			zap.String("event", ev.Type),
			zap.Error(err),
		)
	}
}

// keys returns the normalized names under which domains are recorded
func (w *Watcher) keys() []string {
	keys := make([]string, 0, len(w.opts.Domains))
	for _, raw := range w.opts.Domains {
		if d, err := inspector.ParseDomain(raw); err == nil {
			keys = append(keys, d.String())
		}
	}
	return keys
}

// cronLogger routes scheduler messages through zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
