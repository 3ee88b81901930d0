package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "bpo"
)

// Ключи хранилища учетных данных. Итоговый ключ: префикс + ключ токена,
// например bpo:credentials:admin_token
const (
	RedisKeyCredentials = RedisNamespace + ":credentials:"
)
