// Package client はTodo APIのHTTPクライアントです。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/models"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 100 * time.Millisecond
)

// APIError はサーバーがエラーを返したことを表します。
// Message はレスポンスの "error" の値で、そのまま利用者に表示できます。
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// IsNotFound は err が404かどうかを返します。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client はTodo APIのクライアントです。
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *log.Logger
	attempts int
	backoff  time.Duration
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は使用する http.Client を差し替えます。hc のコピーを使うので、
// 後から WithTimeout を指定しても hc 自体は変更されません。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout はリクエストごとのタイムアウトを設定します。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger はリトライなどのログの出力先を設定します。
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry はGETのリトライ回数と初回の待ち時間を設定します。attempts は1以上です。
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.backoff = backoff
	}
}

// New は baseURL (例: http://localhost:3001/api) に接続するクライアントを作成します。
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API URL must be http or https: %q", baseURL)
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logging.Discard(),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func pageParams(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// List はTodoの一覧を取得します。page と limit が0の場合はサーバーの既定値を使います。
func (c *Client) List(ctx context.Context, page, limit int) (*models.TodoListResponse, error) {
	var resp models.TodoListResponse
	if err := c.get(ctx, "/todos", pageParams(page, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByStatus はstatusで絞り込んだ一覧を取得します。
func (c *Client) ListByStatus(ctx context.Context, status models.Status, page, limit int) (*models.TodoListResponse, error) {
	var resp models.TodoListResponse
	if err := c.get(ctx, "/todos/status/"+url.PathEscape(string(status)), pageParams(page, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByCategory はカテゴリで絞り込んだ一覧を取得します。
func (c *Client) ListByCategory(ctx context.Context, category string, page, limit int) (*models.TodoListResponse, error) {
	var resp models.TodoListResponse
	if err := c.get(ctx, "/todos/category/"+url.PathEscape(category), pageParams(page, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get は指定IDのTodoを取得します。
func (c *Client) Get(ctx context.Context, id string) (*models.Todo, error) {
	var t models.Todo
	if err := c.get(ctx, "/todos/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create はTodoを作成します。
func (c *Client) Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	var t models.Todo
	if err := c.send(ctx, http.MethodPost, "/todos", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update はTodoを部分更新します。
func (c *Client) Update(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	var t models.Todo
	if err := c.send(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete はTodoを削除します。
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

// Health はサーバーの死活を確認します。
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var h models.HealthResponse
	if err := c.get(ctx, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// get は冪等なGETを送ります。ネットワークエラーと5xxの場合だけ指数的に待ってリトライします。
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	wait := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		err = c.do(ctx, http.MethodGet, target, nil, out)
		if err == nil || !retryable(err) || attempt == c.attempts {
			return err
		}
		c.logger.Debug("retrying request", "path", path, "attempt", attempt, "wait", wait, "err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = b
	}
	return c.do(ctx, method, c.baseURL+path, payload, out)
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		apiErr.Field = body.Field
	}
	return apiErr
}
