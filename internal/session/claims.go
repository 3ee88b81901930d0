package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryHint пытается прочитать exp из токена, если это JWT.
// Подпись не проверяется: значение только для отображения оператору,
// решения о доступе принимает исключительно бэкенд.
func ExpiryHint(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
