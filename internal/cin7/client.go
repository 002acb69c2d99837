package cin7

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/finovate/healthcheck-go/internal/domain"
)

const (
	// DefaultBaseURL is the Cin7 Core (formerly DEAR Inventory) external API.
	DefaultBaseURL = "https://inventory.dearsystems.com/ExternalApi/v2"

	// The API allows 60 calls per minute per account.
	requestsPerMinute = 60

	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
	defaultPageLimit  = 100
)

// ErrMissingCredentials is returned when a client is built without an
// account id or application key.
var ErrMissingCredentials = errors.New("cin7: account id and api key are required")

// Credentials identifies one tenant account.
type Credentials struct {
	Name      string
	AccountID string
	APIKey    string
}

// Client is a rate-limited Cin7 Core API client with automatic pagination
// and retry on transient failures. Safe for concurrent use; the limiter
// serializes requests across goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

type Option func(*Client)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelay overrides the base backoff between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithRateLimit overrides the requests-per-minute budget.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if creds.AccountID == "" || creds.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultBaseURL,
		creds:      creds,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 1),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccountName returns the display name of the tenant this client serves.
func (c *Client) AccountName() string {
	return c.creds.Name
}

// get performs one rate-limited GET with retries. 429 waits double the base
// delay before retrying; 500 and 503 and transport errors retry after the
// base delay; everything else fails immediately with an APIError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = params.Encode()
		req.Header.Set("api-auth-accountid", c.creds.AccountID)
		req.Header.Set("api-auth-applicationkey", c.creds.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				log.Warn().Err(err).Str("endpoint", endpoint).Msg("request failed, retrying")
				if err := sleep(ctx, c.retryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &APIError{Endpoint: endpoint, Message: fmt.Sprintf("request failed after %d retries: %v", c.maxRetries, err)}
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read response from %s: %w", endpoint, readErr)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil

		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			if attempt < c.maxRetries {
				delay := c.retryDelay
				if resp.StatusCode == http.StatusTooManyRequests {
					delay *= 2
				}
				log.Warn().
					Int("status", resp.StatusCode).
					Str("endpoint", endpoint).
					Int("attempt", attempt+1).
					Dur("delay", delay).
					Msg("transient api error, retrying")
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Endpoint:   endpoint,
				Message:    "max retries reached: " + string(body),
			}

		default:
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Endpoint:   endpoint,
				Message:    string(body),
			}
		}
	}
}

// paginate collects all pages of a list endpoint into one slice. List
// responses are either a bare JSON array or {"Total": N, "<Resource>": [...]}
// with a resource key that varies per endpoint.
func (c *Client) paginate(ctx context.Context, endpoint string, params url.Values, limit int) ([]domain.Record, error) {
	if params == nil {
		params = url.Values{}
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var all []domain.Record
	for page := 1; ; page++ {
		params.Set("Limit", strconv.Itoa(limit))
		params.Set("Page", strconv.Itoa(page))

		body, err := c.get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}

		records, total, err := decodePage(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", endpoint, page, err)
		}
		if len(records) == 0 {
			break
		}
		all = append(all, records...)

		if len(records) < limit {
			break
		}
		if total > 0 && len(all) >= total {
			break
		}
	}

	log.Debug().Str("endpoint", endpoint).Int("records", len(all)).Msg("pagination complete")
	return all, nil
}

// getOne fetches a single-record endpoint (detail lookups).
func (c *Client) getOne(ctx context.Context, endpoint string, params url.Values) (domain.Record, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var record domain.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return record, nil
}

func decodePage(body []byte) ([]domain.Record, int, error) {
	var asList []domain.Record
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, 0, nil
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(body, &asMap); err != nil {
		return nil, 0, err
	}

	total := 0
	if raw, ok := asMap["Total"]; ok {
		_ = json.Unmarshal(raw, &total)
	}

	// Real payloads carry one resource array next to Total/Page, but decode
	// in key order and prefer a populated array so an extra array-valued
	// key can never shadow the records.
	keys := make([]string, 0, len(asMap))
	for key := range asMap {
		if key == "Total" || key == "Page" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var fallback []domain.Record
	for _, key := range keys {
		var records []domain.Record
		if err := json.Unmarshal(asMap[key], &records); err != nil || records == nil {
			continue
		}
		if len(records) > 0 {
			return records, total, nil
		}
		if fallback == nil {
			fallback = records
		}
	}

	return fallback, total, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
