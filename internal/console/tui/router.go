package tui

import (
	"net/url"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// Route — путь экрана консоли
type Route string

const (
	RouteHome      Route = "/"
	RouteSignin    Route = "/signin"
	RouteLogin     Route = "/login"
	RouteAdmin     Route = "/admin"
	RouteTickets   Route = "/tickets"
	RouteAnalytics Route = "/analytics"
)

// routeFor разбирает адрес; неизвестный путь ведет на домашний экран.
func routeFor(target string) (Route, *url.URL) {
	u, err := url.Parse(target)
	if err != nil {
		return RouteHome, &url.URL{Path: string(RouteHome)}
	}
	switch r := Route(u.Path); r {
	case RouteHome, RouteSignin, RouteLogin, RouteAdmin, RouteTickets, RouteAnalytics:
		return r, u
	default:
		return RouteHome, &url.URL{Path: string(RouteHome)}
	}
}

// protected — экраны за Auth Gate
func (r Route) protected() bool {
	return r != RouteSignin && r != RouteLogin
}

// NavQueue — Navigator для гейтов. Gate.Resolve вызывается из Update,
// поэтому переход только запоминается и исполняется сразу после него.
type NavQueue struct {
	mu      sync.Mutex
	pending []string
}

func NewNavQueue() *NavQueue {
	return &NavQueue{}
}

func (q *NavQueue) Navigate(target string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, target)
}

// Drain забирает накопленные переходы
func (q *NavQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Sender доставляет сообщения в цикл bubbletea из фоновых горутин.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSender создается до tea.Program; SetProgram подключает его позже.
// Сообщения до SetProgram молча теряются.
type ProgramSender struct {
	program atomic.Pointer[tea.Program]
}

func (s *ProgramSender) SetProgram(program *tea.Program) {
	s.program.Store(program)
}

func (s *ProgramSender) Send(msg tea.Msg) {
	if program := s.program.Load(); program != nil {
		program.Send(msg)
	}
}
