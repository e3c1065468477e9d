// Package client is a typed HTTP client for the PallyOps API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

type errorDetail struct {
	Error     string `json:"error"`
	StartedBy string `json:"started_by"`
	StartedAt string `json:"started_at"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Kind      string
	Message   string
	StartedBy string
	StartedAt string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

type Options struct {
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second, RetryCount: 3, RetryWait: 500 * time.Millisecond}
}

type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New points at the server root; token may be empty for login.
func New(baseURL, token string, opts Options, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api/v1").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(10*opts.RetryWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return true
			}
			if r.StatusCode() == http.StatusTooManyRequests {
				return true
			}
			// writes are not replayed after a server error; the first attempt may have landed
			return r.StatusCode() >= 500 && r.Request.Method == http.MethodGet
		})
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{httpClient: c, logger: logger}
}

func call[T any](ctx context.Context, c *Client, method, path string, query map[string]string, pathParams map[string]string, body any) (*envelope[T], error) {
	var ok envelope[T]
	var fail envelope[errorDetail]
	req := c.httpClient.R().SetContext(ctx).SetResult(&ok).SetError(&fail)
	for k, v := range query {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}
	if pathParams != nil {
		req.SetPathParams(pathParams)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("PallyOps API call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := fail.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return nil, &APIError{
			Status:    resp.StatusCode(),
			Kind:      fail.Result.Error,
			Message:   msg,
			StartedBy: fail.Result.StartedBy,
			StartedAt: fail.Result.StartedAt,
		}
	}
	return &ok, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*service.AuthResponse, error) {
	env, err := call[service.AuthResponse](ctx, c, http.MethodPost, "/auth/login", nil, nil,
		service.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) Me(ctx context.Context) (*domain.UserView, error) {
	env, err := call[domain.UserView](ctx, c, http.MethodGet, "/auth/me", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := call[any](ctx, c, http.MethodPost, "/auth/logout", nil, nil, nil)
	return err
}

func (c *Client) Start(ctx context.Context, date, batch, role string) (*service.OperationResult, error) {
	return c.operation(ctx, "/operations/start", map[string]any{
		"operation_date": date, "batch": batch, "role": role,
	})
}

func (c *Client) End(ctx context.Context, date, batch, role string) (*service.OperationResult, error) {
	return c.operation(ctx, "/operations/end", map[string]any{
		"operation_date": date, "batch": batch, "role": role,
	})
}

func (c *Client) EndDriver(ctx context.Context, date, batch string, totalOrders, onTime int) (*service.OperationResult, error) {
	return c.operation(ctx, "/operations/end-driver", map[string]any{
		"operation_date": date, "batch": batch, "total_orders": totalOrders, "on_time_deliveries": onTime,
	})
}

func (c *Client) operation(ctx context.Context, path string, body map[string]any) (*service.OperationResult, error) {
	env, err := call[service.OperationResult](ctx, c, http.MethodPost, path, nil, nil, body)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) GetOperation(ctx context.Context, date, batch, role string) (*domain.OperationView, error) {
	env, err := call[domain.OperationView](ctx, c, http.MethodGet, "/operations/{date}/{batch}/{role}", nil,
		map[string]string{"date": date, "batch": batch, "role": role}, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) CheckPrevious(ctx context.Context, date, batch, role string) (*domain.PreviousRoleCheck, error) {
	env, err := call[domain.PreviousRoleCheck](ctx, c, http.MethodGet, "/operations/check-previous",
		map[string]string{"operation_date": date, "batch": batch, "role": role}, nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

// Batches lists a date's batches; an empty date means today on the server.
func (c *Client) Batches(ctx context.Context, date string) (*domain.BatchList, error) {
	env, err := call[domain.BatchList](ctx, c, http.MethodGet, "/batches",
		map[string]string{"operation_date": date}, nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) BatchRoles(ctx context.Context, date, batch string) (*domain.BatchRoles, error) {
	env, err := call[domain.BatchRoles](ctx, c, http.MethodGet, "/batches/{batch}/roles",
		map[string]string{"operation_date": date}, map[string]string{"batch": batch}, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) InitializeBatch(ctx context.Context, date, batch string) (*service.InitializeResult, error) {
	env, err := call[service.InitializeResult](ctx, c, http.MethodPost, "/batches/{batch}/initialize",
		map[string]string{"operation_date": date}, map[string]string{"batch": batch}, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func (c *Client) DailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	env, err := call[domain.DailySummary](ctx, c, http.MethodGet, "/batches/summary/daily",
		map[string]string{"operation_date": date}, nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

// ExportDailySummary downloads the xlsx workbook for date.
func (c *Client) ExportDailySummary(ctx context.Context, date string) ([]byte, error) {
	var fail envelope[errorDetail]
	req := c.httpClient.R().SetContext(ctx).SetError(&fail).
		SetHeader("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if date != "" {
		req.SetQueryParam("operation_date", date)
	}
	resp, err := req.Get("/batches/summary/export")
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Kind: fail.Result.Error, Message: fail.Message}
	}
	return resp.Body(), nil
}
