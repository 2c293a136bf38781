package prompt

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Theme   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Next / Submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "Cancel"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Theme"),
		),
	}
}

func (k keyMap) hint() string {
	parts := []key.Binding{k.Confirm, k.Next, k.Theme, k.Cancel}
	out := ""
	for i, b := range parts {
		if i > 0 {
			out += "  •  "
		}
		h := b.Help()
		out += h.Key + ": " + h.Desc
	}
	return out
}
