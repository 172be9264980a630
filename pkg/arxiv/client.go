package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"paperharvest/pkg/config"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/models"
	"paperharvest/pkg/ratelimit"
	"paperharvest/pkg/retry"
	"paperharvest/pkg/source"
)

// Client is a PageSource over the arXiv query API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageSize   int
	limiter    ratelimit.Limiter
	pageRetry  retry.Config
	logger     logger.Logger
}

var _ source.PageSource = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter replaces the request limiter
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithPageRetry sets how often a single page request is retried
func WithPageRetry(attempts int, backoff retry.BackoffStrategy) Option {
	return func(c *Client) {
		c.pageRetry.MaxAttempts = attempts
		c.pageRetry.Backoff = backoff
	}
}

// NewClient creates a client from the source configuration
func NewClient(cfg config.SourceConfig, log logger.Logger, opts ...Option) *Client {
	log = logger.OrNop(log).WithField("component", "arxiv")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		pageSize:   pageSize,
		limiter:    ratelimit.NewRequestLimiter(cfg.RequestInterval),
		pageRetry: retry.Config{
			MaxAttempts: 3,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     retryPage,
			Logger:      log,
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search pages through the submittedDate window of q until q.MaxResults
// records were yielded or the API reports no more results.
func (c *Client) Search(ctx context.Context, q source.Query) iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		offset := 0
		for q.MaxResults <= 0 || offset < q.MaxResults {
			size := c.pageSize
			if q.MaxResults > 0 && q.MaxResults-offset < size {
				size = q.MaxResults - offset
			}

			p, err := c.fetchPage(ctx, q, offset, size)
			if err != nil {
				yield(models.Record{}, err)
				return
			}

			if len(p.Records) == 0 {
				if p.Total > offset {
					c.logger.WarnWithFields("arXiv returned an empty page", map[string]interface{}{
						"offset": offset,
						"total":  p.Total,
						"window": SubmittedDateQuery(q.Start, q.End),
					})
					yield(models.Record{}, source.EmptyPage(offset, p.Total))
				}
				return
			}

			for _, r := range p.Records {
				if q.MaxResults > 0 && offset >= q.MaxResults {
					return
				}
				if !yield(r, nil) {
					return
				}
				offset++
			}

			if p.Total >= 0 && offset >= p.Total {
				return
			}
		}
	}
}

// fetchPage requests and decodes one page, retrying transient failures
func (c *Client) fetchPage(ctx context.Context, q source.Query, offset, size int) (*page, error) {
	pageURL := PageURL(c.baseURL, q.Start, q.End, offset, size, q.Order == source.Ascending)

	var result *page
	err := retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := c.get(ctx, pageURL)
		if err != nil {
			return err
		}
		result, err = parsePage(body)
		return err
	}, &c.pageRetry)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched page", map[string]interface{}{
		"offset":  offset,
		"entries": len(result.Records),
		"total":   result.Total,
	})
	return result, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/atom+xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithError(err).WithField("url", url).Warn("HTTP request failed")
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, float64(time.Since(start).Milliseconds()))

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	return body, nil
}

// retryPage retries transport-level failures only; the unit-level policy
// decides about everything else.
func retryPage(err error) bool {
	var e *errs.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Type {
	case errs.ErrorTypeNetwork:
		return true
	case errs.ErrorTypeRateLimit, errs.ErrorTypeServerError:
		return errs.IsRetryableStatusCode(e.Code)
	default:
		return false
	}
}

// checkResponseStatus maps HTTP status codes onto error types
func checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: resp.StatusCode}
	default:
		return &errs.Error{
			Type:    errs.ErrorTypeSource,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
