package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/xela07ax/bpo-console/internal/console/view"
	"github.com/xela07ax/bpo-console/internal/domain"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.route {
	case RouteLogin:
		body = m.viewAdminLogin()
	case RouteSignin:
		body = m.viewSignin()
	case "":
		body = ""
	default:
		if m.mount == nil {
			return ""
		}
		interstitial := m.spinner.View() + " " + Interstitial
		body = m.mount.View(interstitial, m.viewProtected)
		if body == "" {
			// UNAUTHORIZED: защищенного контента нет даже на один кадр
			return ""
		}
	}

	if m.alert != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", alertStyle.Render(m.alert+"\n\n"+dimStyle.Render("press any key")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footerStyle.Render(m.help.View(m.keys)))
}

func (m *Model) viewProtected() string {
	switch m.route {
	case RouteAdmin:
		return m.viewAdmin()
	case RouteTickets:
		return m.viewTickets()
	case RouteAnalytics:
		return m.viewAnalytics()
	default:
		return m.viewHome()
	}
}

func (m *Model) viewAdminLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BPO Admin Console"))
	b.WriteString("\n")
	b.WriteString(m.adminKey.View())
	b.WriteString("\n\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("Verifying..."))
	} else {
		b.WriteString(dimStyle.Render("enter: sign in"))
	}
	if m.formErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.formErr))
	}
	return b.String()
}

func (m *Model) viewSignin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BPO Sign In"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("Signing in..."))
	} else {
		b.WriteString(dimStyle.Render("tab: next field  enter: sign in"))
	}
	if m.formErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.formErr))
	}
	return b.String()
}

func (m *Model) viewAdmin() string {
	s := m.deps.Dashboard.Snapshot()
	cards := []string{
		card("Stability", fmt.Sprintf("%.1f%%", s.Stability)),
		card("Ethics", fmt.Sprintf("%.1f%%", s.Ethics)),
		card("Agents", fmt.Sprintf("%.0f", s.Agents)),
		card("Throughput", fmt.Sprintf("%.0f/h", s.Throughput)),
	}
	ops := []string{
		card("Latency", fmt.Sprintf("%.0f ms", s.Latency)),
		card("Uptime", fmt.Sprintf("%.2f%%", s.Uptime)),
		card("Revenue", fmt.Sprintf("$%.0f", s.Revenue)),
		card("Costs", fmt.Sprintf("$%.0f", s.Costs)),
	}

	var theorems strings.Builder
	for _, th := range view.Theorems() {
		status := okStyle.Render(th.Status)
		if th.Status != "proven" {
			status = warnStyle.Render(th.Status)
		}
		fmt.Fprintf(&theorems, "  %-22s %s  %s\n", th.Name, status, dimStyle.Render(th.Impact))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("BPO Admin Dashboard"),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		lipgloss.JoinHorizontal(lipgloss.Top, ops...),
		"",
		"Theorems",
		theorems.String(),
		dimStyle.Render(fmt.Sprintf("refresh every %s", m.deps.PollInterval)),
	)
}

func card(label, value string) string {
	return cardStyle.Render(dimStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
}

func (m *Model) viewHome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BPO Dashboard"))
	b.WriteString("\n")
	for _, p := range view.HomeSeries() {
		fmt.Fprintf(&b, "%-4s stability %5.1f %s\n", p.Name, p.Stability, bar(p.Stability-90, 10))
		fmt.Fprintf(&b, "     ethics    %5.1f %s\n", p.Ethics, bar(p.Ethics-90, 10))
	}
	b.WriteString("\n")
	if m.hasExpiry {
		left := time.Until(m.expiresAt).Round(time.Minute)
		if left > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("session expires in %s", left)))
		} else {
			b.WriteString(warnStyle.Render("session token has expired"))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("t: tickets  n: analytics  L: logout"))
	return b.String()
}

func (m *Model) viewTickets() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tickets"))
	b.WriteString("\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("Processing..."))
	} else if m.prompt.Focused() {
		b.WriteString(dimStyle.Render("enter: process  esc: cancel"))
	} else {
		b.WriteString(dimStyle.Render("c: new ticket"))
	}
	b.WriteString("\n\n")
	if len(m.table.Rows()) == 0 {
		b.WriteString(dimStyle.Render("No tickets yet"))
	} else {
		b.WriteString(m.table.View())
	}
	return b.String()
}

func (m *Model) viewAnalytics() string {
	if len(m.activity) == 0 {
		return titleStyle.Render("Analytics") + "\n" + dimStyle.Render("Loading analytics...")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analytics"))
	b.WriteString("\n")
	for _, p := range m.activity {
		fmt.Fprintf(&b, "%s  logins %3d %s  sessions %3d  ethics %.0f%%\n",
			p.Date, p.Logins, bar(float64(p.Logins), 10), p.Sessions, p.Ethics)
	}
	sum := domain.Summarize(m.activity)
	fmt.Fprintf(&b, "\ntotal logins %d  avg sessions %.1f  avg ethics %.1f%%",
		sum.TotalLogins, sum.AvgSessions, sum.AvgEthics)
	return b.String()
}

// bar рисует полосу длиной value, обрезанную до max
func bar(value float64, max int) string {
	n := int(value + 0.5)
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return okStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", max-n))
}

func newTicketTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 14},
			{Title: "Task", Width: 40},
			{Title: "Status", Width: 12},
			{Title: "QA", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(colorAccent)
	t.SetStyles(styles)
	return t
}

func (m *Model) refreshTable() {
	list := m.deps.Tickets.List()
	rows := make([]table.Row, 0, len(list))
	for _, tk := range list {
		rows = append(rows, table.Row{tk.ID, tk.Task, tk.Status, fmt.Sprintf("%.0f", tk.QAScore)})
	}
	m.table.SetRows(rows)
}
