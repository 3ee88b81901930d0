package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
)

// Сообщения, которые видит оператор
const (
	MsgInvalidAdminKey  = "Invalid admin key"
	MsgConnectionFailed = "Connection failed"
	MsgLoginFailed      = "Login failed"
	MsgSaveFailed       = "Could not save credentials"
)

// ErrEmptyCredential — форма отправлена пустой
var ErrEmptyCredential = errors.New("session: empty credential")

// LoginError — ошибка логина с текстом для оператора.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// UserMessage возвращает текст для оператора для любой ошибки логина.
func UserMessage(err error) string {
	var le *LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	if errors.Is(err, ErrEmptyCredential) {
		return "Credential is required"
	}
	return MsgConnectionFailed
}

// AdminLogin — вход по админскому ключу.
// Ключ и есть bearer-токен: он пробуется на эндпоинте проверки, и при успехе
// сохраняется как есть. Схема слабая, сохранена ради совместимости с бэкендом.
type AdminLogin struct {
	store    credstore.Store
	verifier Verifier
	logger   *zap.Logger
}

func NewAdminLogin(store credstore.Store, verifier Verifier, logger *zap.Logger) *AdminLogin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminLogin{store: store, verifier: verifier, logger: logger.Named("admin-login")}
}

// Submit проверяет ключ и возвращает цель для навигации.
// При неудаче хранилище не меняется; блокировок и задержек нет.
func (l *AdminLogin) Submit(ctx context.Context, key, returnTo string) (string, error) {
	if key == "" {
		return "", ErrEmptyCredential
	}

	if err := l.verifier.Verify(ctx, key); err != nil {
		if backend.IsStatus(err) {
			l.logger.Info("admin key rejected", zap.Error(err))
			return "", &LoginError{Message: MsgInvalidAdminKey, Err: err}
		}
		l.logger.Warn("admin key check failed", zap.Error(err))
		return "", &LoginError{Message: MsgConnectionFailed, Err: err}
	}

	if err := l.store.Set(ctx, domain.AdminTokenKey, key); err != nil {
		l.logger.Error("failed to persist admin token", zap.Error(err))
		return "", &LoginError{Message: MsgSaveFailed, Err: err}
	}
	return SanitizeReturn(returnTo), nil
}

// TokenIssuer — то, что нужно от backend.Client для пользовательского входа
type TokenIssuer interface {
	IssueToken(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

// UserLogin — вход по логину/паролю через POST /token.
type UserLogin struct {
	store  credstore.Store
	issuer TokenIssuer
	logger *zap.Logger
}

func NewUserLogin(store credstore.Store, issuer TokenIssuer, logger *zap.Logger) *UserLogin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserLogin{store: store, issuer: issuer, logger: logger.Named("user-login")}
}

func (l *UserLogin) Submit(ctx context.Context, username, password, returnTo string) (string, error) {
	if username == "" || password == "" {
		return "", ErrEmptyCredential
	}

	resp, err := l.issuer.IssueToken(ctx, username, password)
	if err != nil {
		l.logger.Info("login failed", zap.String("username", username), zap.Error(err))
		return "", &LoginError{Message: MsgLoginFailed, Err: err}
	}

	if err := l.store.Set(ctx, domain.UserTokenKey, resp.AccessToken); err != nil {
		l.logger.Error("failed to persist user token", zap.Error(err))
		return "", &LoginError{Message: MsgSaveFailed, Err: err}
	}
	return SanitizeReturn(returnTo), nil
}

// Logout стирает токен области. Следующее чтение вернет ErrNoToken.
func Logout(ctx context.Context, store credstore.Store, scope domain.Scope) error {
	if err := store.Clear(ctx, scope.TokenKey()); err != nil {
		return fmt.Errorf("logout %s: %w", scope, err)
	}
	return nil
}
