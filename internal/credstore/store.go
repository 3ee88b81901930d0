// Package credstore хранит bearer-токены консоли между перезапусками.
//
// Хранилище — это просто ключ/значение: никакого кэша перед ним нет, запись и
// удаление видны следующему чтению. Срок жизни токена локально не проверяется,
// об истечении узнаем только когда бэкенд отклонит токен.
package credstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoToken — по ключу ничего не сохранено.
var ErrNoToken = errors.New("credstore: no token stored")

// Store — инжектируемая способность хранить токены.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	Clear(ctx context.Context, key string) error
}

// Driver — тип бэкенда хранилища из конфига.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverRedis  Driver = "redis"
)

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("credstore: empty key")
	}
	return nil
}
