// Package backend — HTTP-клиент к BPO API. Пакет знает только контракт
// эндпоинтов (/admin/verify, /token, /metrics, /cycle), но не их реализацию.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/domain"
)

const (
	PathAdminVerify = "/admin/verify"
	PathToken       = "/token"
	PathMetrics     = "/metrics"
	PathCycle       = "/cycle"
)

// HeaderRequestID пробрасывается в каждый запрос для корреляции логов с бэкендом.
const HeaderRequestID = "X-Request-ID"

// Сколько тела ответа сохраняем в StatusError
const maxErrorBody = 512

// ErrEmptyToken — /token ответил 2xx, но без access_token
var ErrEmptyToken = errors.New("backend: empty access_token in response")

// StatusError — бэкенд ответил не-2xx.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsStatus сообщает, что err — ответ бэкенда (а не сетевой сбой).
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("backend"),
	}
}

// BaseURL — адрес бэкенда без завершающего слэша
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Verify делает ровно один запрос с токеном и ничего не кэширует.
// nil — 2xx, *StatusError — любой другой статус, иначе транспортная ошибка.
func (c *Client) Verify(ctx context.Context, method, path, token string) error {
	return c.do(ctx, method, path, bearer(token), nil, nil)
}

// IssueToken обменивает логин/пароль на пользовательский токен.
func (c *Client) IssueToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	var resp domain.TokenResponse
	req := domain.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, PathToken, "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrEmptyToken
	}
	return &resp, nil
}

// FetchMetrics возвращает частичный снимок: отсутствующие поля остаются nil.
func (c *Client) FetchMetrics(ctx context.Context, token string) (domain.MetricsPatch, error) {
	var patch domain.MetricsPatch
	err := c.do(ctx, http.MethodGet, PathMetrics, bearer(token), nil, &patch)
	return patch, err
}

func (c *Client) ListTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	var list domain.TicketList
	if err := c.do(ctx, http.MethodGet, PathCycle, bearer(token), nil, &list); err != nil {
		return nil, err
	}
	if list.Result == nil {
		return []domain.Ticket{}, nil
	}
	return list.Result, nil
}

func (c *Client) CreateTicket(ctx context.Context, token, prompt string) (*domain.CycleResult, error) {
	var res domain.CycleResult
	req := domain.CycleRequest{Prompt: prompt}
	if err := c.do(ctx, http.MethodPost, PathCycle, bearer(token), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ForwardCycle пересылает сырое тело POST /cycle с заголовком Authorization
// клиента как есть. Используется шлюзом /api/cycle.
func (c *Client) ForwardCycle(ctx context.Context, authorization string, body []byte) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, PathCycle, authorization, json.RawMessage(body), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func bearer(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

func (c *Client) do(ctx context.Context, method, path, authorization string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		zap.String("method", method), zap.String("path", path),
		zap.String("request_id", requestID), zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s response: %w", path, err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID кладет id запроса в контекст; клиент перешлет его бэкенду.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
