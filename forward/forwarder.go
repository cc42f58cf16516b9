// Package forward delivers capture records to the CodeComet collector.
// Delivery is best-effort: failures are logged and never surface to the
// application that produced the record.
package forward

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"

	"github.com/codecomet-io/codecomet-go/capture"
	"github.com/codecomet-io/codecomet-go/common/headers"
	"github.com/codecomet-io/codecomet-go/common/logger"
	cchttp "github.com/codecomet-io/codecomet-go/http"
)

const (
	// DefaultEndpointURL is the hosted collector's ingestion endpoint.
	DefaultEndpointURL = "https://in.codecomet.io/rpc/collector.v1.CollectorService/IngestLog"

	defaultTimeout = 5 * time.Second

	// maxBodySnippet bounds how much of a rejection body reaches the logs.
	maxBodySnippet = 512
)

// Envelope is the wire shape the collector ingests.
type Envelope struct {
	Log *capture.Record `json:"log"`
}

// Config is the file-loadable forwarder configuration.
type Config struct {
	APIKey      string `mapstructure:"apiKey"`
	ProjectID   string `mapstructure:"projectId"`
	CaptureAll  bool   `mapstructure:"captureAll"`
	EndpointURL string `mapstructure:"endpointUrl"`
}

// Forwarder ships records to a single collector endpoint. Safe for
// concurrent use; construct once and share.
type Forwarder struct {
	apiKey      string
	endpointURL string
	captureAll  bool
	timeout     time.Duration
	httpClient  *http.Client
	client      *resty.Client
	log         *logger.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithEndpointURL overrides the collector endpoint.
func WithEndpointURL(url string) Option {
	return func(f *Forwarder) {
		if url != "" {
			f.endpointURL = url
		}
	}
}

// WithCaptureAll forwards every exchange instead of only server errors.
func WithCaptureAll(all bool) Option {
	return func(f *Forwarder) {
		f.captureAll = all
	}
}

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(f *Forwarder) {
		if log != nil {
			f.log = log
		}
	}
}

// WithHTTPClient supplies the underlying HTTP client, e.g. one with custom
// proxy or TLS settings.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithTimeout bounds each delivery attempt. Ignored when WithHTTPClient is
// also given; the supplied client keeps its own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// New builds a Forwarder delivering to the hosted collector with apiKey.
func New(apiKey string, opts ...Option) *Forwarder {
	f := &Forwarder{
		apiKey:      apiKey,
		endpointURL: DefaultEndpointURL,
		timeout:     defaultTimeout,
		log:         logger.Instance(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: f.timeout}
	}
	f.client = cchttp.NewRestyWithClient(f.httpClient, f.log)

	return f
}

// NewFromConfig builds a Forwarder from a loaded Config. Options are applied
// after the config and win on conflict.
func NewFromConfig(cfg Config, opts ...Option) (*Forwarder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("forwarder config: apiKey is required")
	}

	base := []Option{
		WithCaptureAll(cfg.CaptureAll),
		WithEndpointURL(cfg.EndpointURL),
	}
	return New(cfg.APIKey, append(base, opts...)...), nil
}

// shouldForward applies the sampling rule: server errors always ship,
// everything else only when captureAll is set.
func (f *Forwarder) shouldForward(rec *capture.Record) bool {
	return f.captureAll || rec.StatusCode >= http.StatusInternalServerError
}

// Forward delivers rec to the collector. It never returns an error and
// never panics: a capture pipeline failure must not break the application
// request that produced the record.
func (f *Forwarder) Forward(ctx context.Context, rec *capture.Record) {
	if rec == nil || !f.shouldForward(rec) {
		return
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader(headers.HeaderXAPIKey, f.apiKey).
		SetBody(Envelope{Log: rec}).
		Post(f.endpointURL)
	if err != nil {
		f.log.Warn("capture record delivery failed",
			logger.String("endpoint", f.endpointURL),
			logger.Error(err),
		)
		return
	}

	if resp.IsError() {
		f.log.Warn("collector rejected capture record",
			logger.String("endpoint", f.endpointURL),
			logger.Int("status", resp.StatusCode()),
			logger.String("body", snippet(resp.Body())),
		)
	}
}

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		body = body[:maxBodySnippet]
	}
	return string(body)
}
