package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/tracing"
)

// APIKeyHeader carries the node API key.
const APIKeyHeader = "X-API-KEY"

// Config configures the client.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero means unlimited.
	RateLimit float64
	Burst     int
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

// DefaultConfig targets a node on localhost.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:12391",
		Timeout:         30 * time.Second,
		RetryMax:        2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		BreakerCooldown: 10 * time.Second,
	}
}

// StatusError is returned for a server error with no body.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("node returned %d for %s", e.Status, e.Path)
}

// Response is a raw node response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Observer is told about every node call.
type Observer interface {
	ObserveNodeCall(status string, elapsed time.Duration)
}

// Client talks to the node API.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	logger   *logging.Logger
	observer Observer
}

// New creates a client.
func New(cfg Config, logger *logging.Logger) *Client {
	logger = logging.OrNop(logger).Named("node")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveled{logger.Sugar()}
	// Keep the last response so its body reaches the caller.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "qbridge/1.0")
	if cfg.APIKey != "" {
		r.SetHeader(APIKeyHeader, cfg.APIKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	breaker := resilience.New("node", resilience.Settings{
		Trials:   3,
		Cooldown: cfg.BreakerCooldown,
		Trip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5 || (c.Requests >= 20 && c.FailureRatio() > 0.5)
		},
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// SetObserver sets the call observer.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// BreakerState exposes the breaker position for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Fetch performs a GET and returns the raw response.
func (c *Client) Fetch(ctx context.Context, path string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	resp, err := resilience.Do(c.breaker, func() (*Response, error) {
		req := c.resty.R().SetContext(ctx)
		tracing.Inject(ctx, req.Header)
		r, err := req.Get(path)
		if err != nil {
			return nil, err
		}
		out := &Response{
			Status:      r.StatusCode(),
			ContentType: r.Header().Get("Content-Type"),
			Body:        r.Body(),
		}
		if out.Status >= http.StatusInternalServerError && len(out.Body) == 0 {
			return nil, &StatusError{Path: path, Status: out.Status}
		}
		return out, nil
	})
	c.observe(resp, err, start)

	if err != nil {
		c.logger.Debug("node request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// Get performs a GET and returns the body as text.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	resp, err := c.Fetch(ctx, path)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// ResourceStatus looks up the status of a resource.
func (c *Client) ResourceStatus(ctx context.Context, service, name, identifier string) (*resource.Status, error) {
	path := "/arbitrary/resource/status/" + service + "/" + name
	if identifier != "" {
		path += "/" + identifier
	}

	resp, err := c.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	var status resource.Status
	if err := sonic.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("decode status for %s/%s: %w", service, name, err)
	}
	return &status, nil
}

func (c *Client) observe(resp *Response, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	status := "error"
	if err == nil {
		status = fmt.Sprintf("%dxx", resp.Status/100)
	}
	c.observer.ObserveNodeCall(status, time.Since(start))
}

// leveled adapts zap to retryablehttp's logger interface.
type leveled struct {
	s *zap.SugaredLogger
}

func (l leveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
