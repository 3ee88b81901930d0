package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap — клавиши консоли. Буквенные работают только вне полей ввода.
type KeyMap struct {
	Admin     key.Binding
	Tickets   key.Binding
	Analytics key.Binding
	Home      key.Binding
	Logout    key.Binding
	NewTicket key.Binding
	Submit    key.Binding
	NextField key.Binding
	Back      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Admin: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "admin"),
	),
	Tickets: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tickets"),
	),
	Analytics: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "analytics"),
	),
	Home: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "home"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "logout"),
	),
	NewTicket: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "new ticket"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "home"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// ShortHelp реализует help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Home, k.Admin, k.Tickets, k.Analytics, k.Logout, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Home, k.Admin, k.Tickets, k.Analytics},
		{k.NewTicket, k.Submit, k.NextField},
		{k.Logout, k.Back, k.Quit},
	}
}
