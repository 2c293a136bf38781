package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldCount
)

const formWidth = 60

const storageWarning = "Your password is sent once and never stored."

type model struct {
	keys     keyMap
	theme    Theme
	notice   string
	inputs   [fieldCount]textinput.Model
	focusIdx int
	errMsg   string
	width    int

	submitted bool
	cancelled bool
}

func newModel(notice string, theme Theme, username string) model {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 150
	user.Width = 30
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 256
	pass.Width = 30
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	m := model{
		keys:   defaultKeyMap(),
		theme:  theme,
		notice: notice,
		inputs: [fieldCount]textinput.Model{user, pass},
	}
	m.inputs[fieldUsername].Focus()
	return m
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelled = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		if m.focusIdx == fieldUsername {
			if strings.TrimSpace(m.username()) == "" {
				m.errMsg = "Username is required."
				return m, nil
			}
			m.errMsg = ""
			m.setFocus(fieldPassword)
			return m, nil
		}
		if strings.TrimSpace(m.username()) == "" {
			m.errMsg = "Username is required."
			m.setFocus(fieldUsername)
			return m, nil
		}
		if m.password() == "" {
			m.errMsg = "Password is required."
			return m, nil
		}
		m.errMsg = ""
		m.submitted = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		m.setFocus((m.focusIdx + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.setFocus((m.focusIdx - 1 + fieldCount) % fieldCount)
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m *model) setFocus(idx int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = idx
	m.inputs[m.focusIdx].Focus()
}

func (m model) username() string { return strings.TrimSpace(m.inputs[fieldUsername].Value()) }
func (m model) password() string { return m.inputs[fieldPassword].Value() }

func (m model) View() string {
	// nothing is left on screen once the form closes
	if m.submitted || m.cancelled {
		return ""
	}
	styles := m.theme.Styles()
	width := formWidth
	if m.width > 0 && m.width-4 < width {
		width = max(m.width-4, 20)
	}

	var b strings.Builder
	if m.notice != "" {
		b.WriteString(styles.Banner.Width(width).Render(m.notice))
		b.WriteString("\n")
	}

	var form strings.Builder
	form.WriteString(styles.Text.Bold(true).Render("ATLAS login"))
	form.WriteString("\n")
	form.WriteString(styles.Divider.Render(strings.Repeat("─", 30)))
	form.WriteString("\n")
	form.WriteString(styles.WarningText.Render(storageWarning))
	form.WriteString("\n\n")

	labels := [fieldCount]string{"Username: ", "Password: "}
	for i := range labels {
		label := labels[i]
		if m.focusIdx == i {
			label = styles.AccentText.Render(label)
		} else {
			label = styles.MutedText.Render(label)
		}
		form.WriteString(label)
		form.WriteString(m.inputs[i].View())
		form.WriteString("\n\n")
	}
	if m.errMsg != "" {
		form.WriteString(styles.DangerText.Render(m.errMsg))
		form.WriteString("\n")
	}
	form.WriteString(styles.FaintText.Render(m.keys.hint()))
	form.WriteString("\n")
	form.WriteString(styles.MutedText.Render("theme: " + m.theme.Name))

	b.WriteString(styles.Form.Width(width).Render(form.String()))
	return b.String()
}
