// Package view содержит модели экранов консоли без привязки к отрисовке.
//
// Любой асинхронный результат применяется только через Scope владельца:
// если экран уже закрыт, поздний ответ молча отбрасывается.
package view

import (
	"sync/atomic"
)

var scopeSeq atomic.Uint64

// Scope — токен "владелец еще жив".
type Scope struct {
	id     uint64
	closed atomic.Bool
}

func NewScope() *Scope {
	return &Scope{id: scopeSeq.Add(1)}
}

func (s *Scope) ID() uint64 { return s.id }

// Close помечает владельца ушедшим. Идемпотентен.
func (s *Scope) Close() { s.closed.Store(true) }

// Alive — nil-скоуп считается мертвым
func (s *Scope) Alive() bool {
	return s != nil && !s.closed.Load()
}
