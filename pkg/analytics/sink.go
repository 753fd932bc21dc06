// Package analytics ships tour outcome beacons to an HTTP collector.
// Delivery is best-effort: the session manager already treats publish
// errors as non-fatal, so the sink only has to be honest about them.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

const (
	// DefaultTimeout bounds a single beacon request end to end.
	DefaultTimeout = 5 * time.Second

	// DefaultPublishRate caps outbound beacons per second. Tours end at
	// human speed; anything faster than this is a bug upstream, not
	// traffic the collector should absorb.
	DefaultPublishRate = 10

	// maxErrorBodySize limits how much of an error response is read
	// for the returned message.
	maxErrorBodySize = 512
)

// HTTPSink posts one JSON beacon per tour outcome to a fixed endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	headers  http.Header
}

var _ ports.AnalyticsSink = (*HTTPSink)(nil)

// Option configures an HTTPSink.
type Option func(*HTTPSink)

// WithHTTPClient substitutes the HTTP client, for custom transports or
// timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSink) {
		s.client = client
	}
}

// WithLogger configures a logger for publish attempts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPSink) {
		s.logger = logging.OrNop(logger)
	}
}

// WithRateLimit overrides the outbound beacon rate. Burst matches the
// rate so a short flush after reconnect is not throttled.
func WithRateLimit(perSecond float64) Option {
	return func(s *HTTPSink) {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHeader adds a header to every beacon request, typically an
// authorization token for the collector.
func WithHeader(key, value string) Option {
	return func(s *HTTPSink) {
		s.headers.Set(key, value)
	}
}

// NewHTTPSink builds a sink posting to the given collector URL.
func NewHTTPSink(endpoint string, opts ...Option) *HTTPSink {
	s := &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(DefaultPublishRate), DefaultPublishRate),
		logger:   logging.NewNop(),
		headers:  make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish posts the outcome as JSON. The body is the outcome's wire
// form: completed, skipped, tourName, stepsCompleted.
func (s *HTTPSink) Publish(ctx context.Context, outcome domain.Outcome) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}

	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("analytics: encode outcome: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: post outcome: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("analytics: collector returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body) // drain for connection reuse

	s.logger.Debug("Published tour outcome",
		"tour", outcome.TourName,
		"completed", outcome.Completed,
		"skipped", outcome.Skipped,
	)
	return nil
}

// Nop discards every outcome. Useful as an explicit placeholder where
// a sink is required but analytics is disabled.
type Nop struct{}

var _ ports.AnalyticsSink = Nop{}

// Publish does nothing and always succeeds.
func (Nop) Publish(context.Context, domain.Outcome) error {
	return nil
}
