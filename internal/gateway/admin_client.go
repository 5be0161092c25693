// Package gateway реализации хранилища клиентских политик.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options настройки клиента admin API.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	Retries    uint
	RetryDelay time.Duration

	CBFailures    uint32
	CBMaxRequests uint32
	CBInterval    time.Duration
	CBTimeout     time.Duration

	HTTPClient *http.Client
}

// AdminClient ходит в admin REST API сервера авторизации:
// GET/PUT /admin/realms/{realm}/client-policies/policies.
// Обернут в rate limiter, circuit breaker и retry с экспоненциальным бэкоффом.
type AdminClient struct {
	baseURL    string
	token      string
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration

	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewAdminClient(opts Options, logger *zap.Logger) *AdminClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 5
	}
	if opts.Retries == 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.CBFailures == 0 {
		opts.CBFailures = 5
	}

	logger = logger.Named("admin-client")
	failures := opts.CBFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "client-policies-admin-api",
		MaxRequests: opts.CBMaxRequests,
		Interval:    opts.CBInterval,
		Timeout:     opts.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Отказ сервера по существу (4xx) не повод размыкать цепь
		IsSuccessful: func(err error) bool {
			return err == nil || !isTemporary(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &AdminClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		timeout:    opts.Timeout,
		attempts:   opts.Retries,
		retryDelay: opts.RetryDelay,
		http:       opts.HTTPClient,
		cb:         cb,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		logger:     logger,
	}
}

// ListPolicies отсутствующий или null "policies" означает пустую коллекцию.
func (c *AdminClient) ListPolicies(ctx context.Context, realm string) (domain.PolicyCollection, error) {
	var doc domain.PolicyDocument
	if err := c.do(ctx, http.MethodGet, realm, nil, &doc); err != nil {
		return nil, err
	}
	if doc.Policies == nil {
		return domain.PolicyCollection{}, nil
	}
	return doc.Policies, nil
}

// UpdatePolicies заменяет коллекцию целиком. Повтор безопасен: PUT идемпотентен.
func (c *AdminClient) UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error {
	body, err := json.Marshal(domain.PolicyDocument{Policies: policies})
	if err != nil {
		return fmt.Errorf("admin client: marshal policies: %w", err)
	}
	return c.do(ctx, http.MethodPut, realm, body, nil)
}

func (c *AdminClient) policiesURL(realm string) string {
	return c.baseURL + "/admin/realms/" + url.PathEscape(realm) + "/client-policies/policies"
}

func (c *AdminClient) do(ctx context.Context, method, realm string, body []byte, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		var attempt uint
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.retryDelay),
			retry.LastErrorOnly(true),
			retry.DelayType(retry.BackOffDelay),
		)

		return nil, r.Do(func() error {
			attempt++
			err := c.roundTrip(ctx, method, realm, body, out)
			if err == nil {
				return nil
			}
			if !isTemporary(err) {
				return retry.Unrecoverable(err)
			}
			c.logger.Warn("admin api call failed",
				zap.String("method", method),
				zap.String("realm", realm),
				zap.Uint("attempt", attempt),
				zap.Error(err))
			return err
		})
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("admin api unavailable: %w", err)
	}
	return err
}

func (c *AdminClient) roundTrip(ctx context.Context, method, realm string, body []byte, out interface{}) error {
	tCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(tCtx, method, c.policiesURL(realm), reader)
	if err != nil {
		return fmt.Errorf("admin client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("admin client: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.GatewayStatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("admin client: decode response: %w", err)
	}
	return nil
}

// readErrorMessage вытаскивает errorMessage/error из тела ответа, иначе берет текст как есть.
func readErrorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		ErrorMessage string `json:"errorMessage"`
		Error        string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.ErrorMessage != "" {
			return payload.ErrorMessage
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// isTemporary сетевые ошибки и 5xx/429 повторяем, остальные статусы нет.
func isTemporary(err error) bool {
	var statusErr *domain.GatewayStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}
