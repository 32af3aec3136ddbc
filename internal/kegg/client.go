package kegg

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public KEGG REST endpoint.
const DefaultBaseURL = "https://rest.kegg.jp"

// ClientConfig tunes the REST client. Zero values fall back to the
// defaults the KEGG API tolerates.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxPerSecond float64
	Retries      int
}

// Client is a rate-limited KEGG REST client. The API answers 403 when it is
// queried too aggressively; the client treats that as throttling and backs
// off instead of failing.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	retries        int
	backoffInitial time.Duration
	log            *zap.Logger
}

// NewClient builds a client from cfg. log must not be nil.
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxPerSecond == 0 {
		cfg.MaxPerSecond = 8
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		limiter:        rate.NewLimiter(rate.Limit(cfg.MaxPerSecond), 1),
		retries:        cfg.Retries,
		backoffInitial: 5 * time.Second,
		log:            log,
	}
}

var errThrottled = errors.New("throttled by the KEGG API")

// ErrNotFound reports a 404 response. KEGG answers 404 for retired
// identifiers, so callers can treat it as a missing record instead of a
// failure.
var ErrNotFound = errors.New("entry not found")

// Get fetches a path relative to the base URL and returns the body. It
// retries transport errors up to the configured number of attempts and backs
// off with jittered exponential delays while the API returns 403, until the
// context is cancelled.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	var body string
	netErrs := 0

	operation := func() error {
		b, status, err := c.roundTrip(ctx, path)
		if err != nil {
			netErrs++
			if netErrs > c.retries {
				return backoff.Permanent(err)
			}
			c.log.Debug("transport error, retrying",
				zap.String("path", path), zap.Error(err))

			return err
		}

		switch status {
		case http.StatusOK:
			body = b

			return nil
		case http.StatusForbidden:
			c.log.Debug("throttled, backing off", zap.String("path", path))

			return errThrottled
		case http.StatusNotFound:
			return backoff.Permanent(errors.Wrapf(ErrNotFound, "no entry at %s", path))
		default:
			return backoff.Permanent(errors.Errorf("unexpected status %d for %s", status, path))
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffInitial
	bo.RandomizationFactor = 0.2
	bo.Multiplier = 2
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err != nil {
		return "", errors.Wrapf(err, "unable to fetch %s", path)
	}

	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, path string) (string, int, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return "", 0, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "unable to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, errors.Wrap(err, "unable to read response body")
	}

	return string(b), resp.StatusCode, nil
}
