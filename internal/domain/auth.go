package domain

// Ключи хранилища учетных данных. Два независимых токена: админский (консоль
// управления) и пользовательский (обычный дашборд).
const (
	AdminTokenKey = "admin_token"
	UserTokenKey  = "bpo_token"
)

// Scope — область учетных данных. Админская и пользовательская сессии
// не пересекаются: разные ключи, разные эндпоинты проверки.
type Scope string

const (
	ScopeAdmin Scope = "admin"
	ScopeUser  Scope = "user"
)

// TokenKey возвращает ключ хранилища для области.
func (s Scope) TokenKey() string {
	if s == ScopeAdmin {
		return AdminTokenKey
	}
	return UserTokenKey
}

// LoginRequest — тело POST /token
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse — ответ POST /token. Бэкенд гарантирует только access_token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}
