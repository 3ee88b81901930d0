package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xela07ax/bpo-console/internal/session"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	// Алерт блокирует экран до любого нажатия
	if m.alert != "" {
		m.alert = ""
		return nil
	}

	switch {
	case m.route == RouteLogin:
		return m.handleAdminLoginKey(msg)
	case m.route == RouteSignin:
		return m.handleSigninKey(msg)
	case m.route == RouteTickets && m.prompt.Focused():
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Home), key.Matches(msg, m.keys.Back):
		return m.navigate(string(RouteHome))
	case key.Matches(msg, m.keys.Admin):
		return m.navigate(string(RouteAdmin))
	case key.Matches(msg, m.keys.Tickets):
		return m.navigate(string(RouteTickets))
	case key.Matches(msg, m.keys.Analytics):
		return m.navigate(string(RouteAnalytics))
	case key.Matches(msg, m.keys.Logout):
		if m.authorized() {
			return m.logout()
		}
	case m.route == RouteTickets && key.Matches(msg, m.keys.NewTicket):
		if m.authorized() {
			return m.prompt.Focus()
		}
	}

	if m.route == RouteTickets && m.authorized() {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleAdminLoginKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.navigate(string(RouteHome))
	case key.Matches(msg, m.keys.Submit):
		// Пустой ключ не отправляем
		if m.submitting || m.adminKey.Value() == "" {
			return nil
		}
		m.submitting = true
		m.formErr = ""
		login, ctx, value, returnTo := m.deps.AdminLogin, m.ctx, m.adminKey.Value(), m.returnTo
		return func() tea.Msg {
			target, err := login.Submit(ctx, value, returnTo)
			return loginDoneMsg{route: RouteLogin, target: target, err: err}
		}
	}
	var cmd tea.Cmd
	m.adminKey, cmd = m.adminKey.Update(msg)
	return cmd
}

func (m *Model) handleSigninKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.navigate(string(RouteHome))
	case key.Matches(msg, m.keys.NextField):
		return m.toggleSigninFocus()
	case key.Matches(msg, m.keys.Submit):
		if m.username.Focused() {
			return m.toggleSigninFocus()
		}
		if m.submitting || m.username.Value() == "" || m.password.Value() == "" {
			return nil
		}
		m.submitting = true
		m.formErr = ""
		login, ctx, user, pass, returnTo := m.deps.UserLogin, m.ctx, m.username.Value(), m.password.Value(), m.returnTo
		return func() tea.Msg {
			target, err := login.Submit(ctx, user, pass, returnTo)
			return loginDoneMsg{route: RouteSignin, target: target, err: err}
		}
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *Model) toggleSigninFocus() tea.Cmd {
	if m.username.Focused() {
		m.username.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.username.Focus()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.prompt.Blur()
		return nil
	case key.Matches(msg, m.keys.Submit):
		if m.submitting || m.prompt.Value() == "" {
			return nil
		}
		m.submitting = true
		tickets, ctx, scope, prompt := m.deps.Tickets, m.ctx, m.scope, m.prompt.Value()
		return func() tea.Msg {
			res, err := tickets.Create(ctx, scope, prompt)
			return ticketCreatedMsg{scope: scope, res: res, err: err}
		}
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// logout стирает токен области текущего экрана и ведет на её логин.
func (m *Model) logout() tea.Cmd {
	gate := m.gateFor(m.route)
	target := string(RouteSignin)
	if m.route == RouteAdmin {
		target = string(RouteLogin)
	}
	store, ctx, scope := m.deps.Store, m.ctx, gate.Scope()
	return func() tea.Msg {
		return logoutDoneMsg{target: target, err: session.Logout(ctx, store, scope)}
	}
}

// updateInputs прокидывает служебные сообщения (мигание курсора) в активное поле
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.route == RouteLogin:
		m.adminKey, cmd = m.adminKey.Update(msg)
	case m.route == RouteSignin && m.username.Focused():
		m.username, cmd = m.username.Update(msg)
	case m.route == RouteSignin:
		m.password, cmd = m.password.Update(msg)
	case m.route == RouteTickets && m.prompt.Focused():
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return cmd
}
