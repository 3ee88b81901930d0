package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
)

// ErrEmptyPrompt — попытка создать тикет без текста
var ErrEmptyPrompt = errors.New("tickets: empty prompt")

// TicketSource — то, что экрану тикетов нужно от backend.Client
type TicketSource interface {
	ListTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, token, prompt string) (*domain.CycleResult, error)
}

// Tickets — модель списка тикетов. Список меняется только перечиткой
// с бэкенда, локальных вставок нет.
type Tickets struct {
	source TicketSource
	store  credstore.Store
	logger *zap.Logger

	mu      sync.RWMutex
	tickets []domain.Ticket
	scope   *Scope
}

func NewTickets(source TicketSource, store credstore.Store, logger *zap.Logger) *Tickets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tickets{source: source, store: store, logger: logger.Named("tickets")}
}

// Mount открывает новую область владения с пустым списком, старая закрывается.
func (t *Tickets) Mount() *Scope {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scope != nil {
		t.scope.Close()
	}
	t.scope = NewScope()
	t.tickets = nil
	return t.scope
}

// Unmount закрывает область и забывает список: следующая сессия его не увидит.
func (t *Tickets) Unmount() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scope != nil {
		t.scope.Close()
		t.scope = nil
	}
	t.tickets = nil
}

// Load перечитывает список. При ошибке прежний список сохраняется.
func (t *Tickets) Load(ctx context.Context, scope *Scope) error {
	token, err := t.store.Get(ctx, domain.UserTokenKey)
	if err != nil {
		return fmt.Errorf("tickets: read token: %w", err)
	}
	list, err := t.source.ListTickets(ctx, token)
	if err != nil {
		t.logger.Warn("fetch tickets failed", zap.Error(err))
		return fmt.Errorf("tickets: list: %w", err)
	}
	t.replace(scope, list)
	return nil
}

// Create отправляет новый тикет и затем перечитывает весь список.
// При ошибке создания список не меняется.
func (t *Tickets) Create(ctx context.Context, scope *Scope, prompt string) (*domain.CycleResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	token, err := t.store.Get(ctx, domain.UserTokenKey)
	if err != nil {
		return nil, fmt.Errorf("tickets: read token: %w", err)
	}
	res, err := t.source.CreateTicket(ctx, token, prompt)
	if err != nil {
		t.logger.Warn("create ticket failed", zap.Error(err))
		return nil, fmt.Errorf("tickets: create: %w", err)
	}
	if err := t.Load(ctx, scope); err != nil {
		// Тикет создан, просто список пока старый
		t.logger.Warn("reload after create failed", zap.Error(err))
	}
	return res, nil
}

// replace применяет список, только если scope — текущая живая область.
func (t *Tickets) replace(scope *Scope, list []domain.Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !scope.Alive() || scope != t.scope {
		return false
	}
	t.tickets = append([]domain.Ticket(nil), list...)
	return true
}

func (t *Tickets) List() []domain.Ticket {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Ticket(nil), t.tickets...)
}

// CreatedMessage — текст уведомления после успешного создания
func CreatedMessage(res *domain.CycleResult) string {
	return "Processed: " + res.Result.ID
}

// MsgProcessFailed — уведомление при ошибке создания
const MsgProcessFailed = "Process failed"
