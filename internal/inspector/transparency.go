package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultCTURLTemplate queries crt.sh; %s receives the escaped domain
const DefaultCTURLTemplate = "https://crt.sh/?q=%s&output=json"

// CorrelatorConfig holds CT aggregator settings
type CorrelatorConfig struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	// RateLimit is the allowed requests per second; zero disables limiting
	RateLimit float64
}

// Correlator looks up historical issuances of a domain in CT logs
type Correlator struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
	urlTemplate string
	userAgent   string
}

// NewCorrelator creates a Correlator
func NewCorrelator(cfg CorrelatorConfig, logger *zap.Logger) *Correlator {
	template := cfg.URLTemplate
	if template == "" {
		template = DefaultCTURLTemplate
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Correlator{
		urlTemplate: template,
		userAgent:   cfg.UserAgent,
		limiter:     limiter,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Correlate returns the raw CT entries for domain. Failures are logged and
// yield an empty slice.
func (c *Correlator) Correlate(ctx context.Context, domain DomainName) []json.RawMessage {
	entries, err := c.Fetch(ctx, domain)
	if err != nil {
		CTRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("CT log lookup failed",
			zap.String("domain", domain.String()),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return []json.RawMessage{}
	}

	CTRequestsTotal.WithLabelValues("success").Inc()
	return entries
}

// Fetch queries the aggregator and returns its entries or a typed error
func (c *Correlator) Fetch(ctx context.Context, domain DomainName) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newError(KindTimeout, domain, fmt.Errorf("rate limiter: %w", err))
	}

	endpoint := fmt.Sprintf(c.urlTemplate, url.QueryEscape(domain.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, newError(KindRemoteAPI, domain, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("querying CT aggregator", zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(KindTimeout, domain, err)
		}
		return nil, newError(KindRemoteAPI, domain, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindRemoteAPI, domain, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	entries, err := decodeEntries(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(KindTimeout, domain, err)
		}
		return nil, newError(KindRemoteAPI, domain, fmt.Errorf("invalid JSON: %w", err))
	}

	return entries, nil
}

// decodeEntries streams a JSON array element by element. A null body is an
// empty history.
func decodeEntries(body io.Reader) ([]json.RawMessage, error) {
	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if tok == nil {
		return []json.RawMessage{}, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}

	entries := []json.RawMessage{}
	for dec.More() {
		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return entries, nil
}
