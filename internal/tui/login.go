package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// signInResultMsg carries the outcome of an async sign-in attempt.
type signInResultMsg struct {
	err error
}

// loginModel is the email/password sign-in form.
type loginModel struct {
	deps   Deps
	inputs []textinput.Model
	focus  int
	errMsg string
	busy   bool
	width  int
	height int
}

func newLoginModel(deps Deps) loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "••••••••"
	password.Prompt = "Password "
	password.Width = 36
	password.EchoMode = textinput.EchoPassword

	return loginModel{
		deps:   deps,
		inputs: []textinput.Model{email, password},
	}
}

func (m *loginModel) setSize(width, height int) {
	m.width, m.height = width, height
}

func (m loginModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		m.busy = false
		if msg.err != nil {
			// Auth errors surface verbatim as form-level messages.
			m.errMsg = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.errMsg = ""
			return m.cycleFocus(msg.String() == "tab" || msg.String() == "down"), nil
		case "enter":
			if m.focus < len(m.inputs)-1 {
				return m.cycleFocus(true), nil
			}
			return m.submit()
		case "ctrl+n":
			m.deps.Resolver.RequestSignup()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m loginModel) cycleFocus(forward bool) loginModel {
	m.inputs[m.focus].Blur()
	if forward {
		m.focus = (m.focus + 1) % len(m.inputs)
	} else {
		m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := m.inputs[0].Value()
	password := m.inputs[1].Value()
	if email == "" || password == "" {
		m.errMsg = "Email and password are required."
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	authClient := m.deps.Auth
	return m, func() tea.Msg {
		return signInResultMsg{err: authClient.SignIn(context.Background(), email, password)}
	}
}

func (m loginModel) view() string {
	form := brandStyle.Render("Replify") + "\n\n" +
		titleStyle.Render("Welcome back") + "\n" +
		dimStyle.Render("Sign in to your dashboard") + "\n\n"

	if m.errMsg != "" {
		form += errorStyle.Render(m.errMsg) + "\n\n"
	}

	for _, input := range m.inputs {
		form += input.View() + "\n"
	}

	if m.busy {
		form += "\n" + dimStyle.Render("Signing in…")
	} else {
		form += "\n" + faintStyle.Render("enter sign in · ctrl+n get started · ctrl+c quit")
	}

	card := paneBorder.Padding(1, 3).Render(form)
	if m.width == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
