package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Assembler orchestrates the retriever, analyzer and correlator into a
// single ScanReport.
type Assembler struct {
	retriever   *Retriever
	analyzer    *Analyzer
	correlator  *Correlator
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// AssemblerOption customizes an Assembler
type AssemblerOption func(*Assembler)

// WithClock overrides the clock used for scan times and expiry math
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithConcurrency bounds how many domains ScanAll inspects at once
func WithConcurrency(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAssembler creates an Assembler. A nil correlator disables CT lookups.
func NewAssembler(r *Retriever, an *Analyzer, c *Correlator, logger *zap.Logger, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		retriever:   r,
		analyzer:    an,
		correlator:  c,
		logger:      logger,
		now:         time.Now,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scan inspects one domain. Certificate retrieval is mandatory: its failure
// fails the scan. Cipher and CT data are optional enrichments.
func (a *Assembler) Scan(ctx context.Context, raw string) (*ScanReport, error) {
	domain, err := ParseDomain(raw)
	if err != nil {
		ScansTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	start := a.now()

	var (
		cert      CertificateRecord
		ctEntries []json.RawMessage
	)

	g := new(errgroup.Group)
	g.SetLimit(2)
	g.Go(func() error {
		rec, retrieveErr := a.retriever.Retrieve(ctx, domain)
		if retrieveErr != nil {
			return retrieveErr
		}
		cert = rec
		return nil
	})
	if a.correlator != nil {
		g.Go(func() error {
			ctEntries = a.correlator.Correlate(ctx, domain)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ScansTotal.WithLabelValues("failed").Inc()
		a.logger.Warn("scan failed",
			zap.String("domain", domain.String()),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	var cipher *CipherAssessment
	if a.analyzer != nil {
		cipher = a.analyzer.Analyze(ctx, domain)
	}

	report := a.buildReport(domain, cert, cipher, len(ctEntries))

	ScansTotal.WithLabelValues("success").Inc()
	a.logger.Info("scan complete",
		zap.String("domain", domain.String()),
		zap.Duration("duration", a.now().Sub(start)),
		zap.String("expiry_status", string(report.ExpiryStatus)),
		zap.Int("ct_log_entries", report.CTLogEntries),
		zap.Int("warnings", len(report.Warnings)),
	)

	return report, nil
}

// Rescan drops any cached certificate for the domain before scanning
func (a *Assembler) Rescan(ctx context.Context, raw string) (*ScanReport, error) {
	domain, err := ParseDomain(raw)
	if err != nil {
		return nil, err
	}
	a.retriever.Cache().Invalidate(ctx, domain)
	return a.Scan(ctx, domain.String())
}

// Result pairs a domain with its scan outcome
type Result struct {
	Report *ScanReport
	Err    error
	Domain string
}

// ScanAll scans every domain with bounded concurrency. Results keep the
// order of the input.
func (a *Assembler) ScanAll(ctx context.Context, domains []string) []Result {
	results := make([]Result, len(domains))
	var wg sync.WaitGroup

	sem := make(chan struct{}, a.concurrency)

	for i, d := range domains {
		wg.Add(1)
		go func(idx int, domain string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Result{Domain: domain, Err: ctx.Err()}
				return
			}

			report, err := a.Scan(ctx, domain)
			results[idx] = Result{Domain: domain, Report: report, Err: err}
		}(i, d)
	}

	wg.Wait()
	return results
}

func (a *Assembler) buildReport(domain DomainName, cert CertificateRecord, cipher *CipherAssessment, ctCount int) *ScanReport {
	now := a.now().UTC()
	report := &ScanReport{
		Domain:       domain,
		Certificate:  cert,
		Cipher:       cipher,
		CTLogEntries: ctCount,
		ScanTime:     now,
		ExpiryStatus: ExpiryUnknown,
	}

	days, err := DaysRemaining(cert.ValidTo, now)
	if err != nil {
		a.logger.Warn("could not compute certificate expiry",
			zap.String("domain", domain.String()),
			zap.String("valid_to", cert.ValidTo),
			zap.Error(err),
		)
	} else {
		report.DaysRemaining = &days
		report.ExpiryStatus = ClassifyExpiry(days)
	}

	report.Warnings = collectWarnings(report)
	return report
}

func collectWarnings(r *ScanReport) []Warning {
	var warnings []Warning

	if r.Certificate.IsSelfSigned {
		warnings = append(warnings, Warning{
			Type:    WarningSelfSigned,
			Message: "Self-signed certificate detected",
		})
	}

	if r.Cipher != nil && r.Cipher.IsWeak {
		warnings = append(warnings, Warning{
			Type:    WarningWeakCipher,
			Message: fmt.Sprintf("Weak cipher negotiated: %s (%d bits)", r.Cipher.CipherName, r.Cipher.Bits),
		})
	}

	switch r.ExpiryStatus {
	case ExpiryWarning:
		warnings = append(warnings, Warning{
			Type:    WarningExpiringSoon,
			Message: fmt.Sprintf("Certificate expires in %d days", *r.DaysRemaining),
		})
	case ExpiryExpired:
		warnings = append(warnings, Warning{
			Type:    WarningExpired,
			Message: fmt.Sprintf("Certificate expired on %s", r.Certificate.ValidTo),
		})
	}

	return warnings
}
