package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrRejected — токен не прошел проверку. Сетевые сбои тоже сворачиваются
// в ErrRejected: при неопределенности доступ не выдаем.
var ErrRejected = errors.New("session: credential rejected")

// Verifier проверяет, действителен ли токен прямо сейчас.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// EndpointClient — то, что нужно верификатору от backend.Client
type EndpointClient interface {
	Verify(ctx context.Context, method, path, token string) error
}

// HTTPVerifier делает ровно один запрос к эндпоинту проверки.
// Без кэша и без повторов: одна неудача — окончательный отказ для этой проверки.
type HTTPVerifier struct {
	client EndpointClient
	method string
	path   string
}

func NewHTTPVerifier(client EndpointClient, method, path string) *HTTPVerifier {
	return &HTTPVerifier{client: client, method: method, path: path}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) error {
	if err := v.client.Verify(ctx, v.method, v.path, token); err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return nil
}

// VerifierFunc позволяет использовать обычную функцию как Verifier.
type VerifierFunc func(ctx context.Context, token string) error

func (f VerifierFunc) Verify(ctx context.Context, token string) error {
	return f(ctx, token)
}
