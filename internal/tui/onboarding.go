package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhanhataka-sys/replify-dashboard/internal/onboarding"
)

// advanceResultMsg carries the outcome of an async step advance
// (account creation or final submission).
type advanceResultMsg struct {
	err error
}

const catalogueFields = 4

// onboardingModel drives the five-step registration wizard over an
// onboarding.Flow. Inputs are rebuilt whenever the step changes.
type onboardingModel struct {
	deps   Deps
	flow   *onboarding.Flow
	inputs []textinput.Model
	focus  int
	errMsg string
	busy   bool
	width  int
	height int
}

func newOnboardingModel(deps Deps) onboardingModel {
	m := onboardingModel{
		deps: deps,
		flow: onboarding.NewFlow(deps.Auth, deps.API),
	}
	m.rebuildInputs()
	return m
}

func (m *onboardingModel) setSize(width, height int) {
	m.width, m.height = width, height
}

func (m onboardingModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

// rebuildInputs creates the input set for the current step, seeded
// with the flow's current values.
func (m *onboardingModel) rebuildInputs() {
	var specs []struct{ prompt, value, placeholder string }

	add := func(prompt, value, placeholder string) {
		specs = append(specs, struct{ prompt, value, placeholder string }{prompt, value, placeholder})
	}

	switch m.flow.Step() {
	case onboarding.StepAccount:
		add("Email            ", m.flow.Email, "you@example.com")
		add("Password         ", m.flow.Password, "Min. 8 characters")
	case onboarding.StepDetails:
		add("Business name    ", m.flow.Name, "Mama's Kitchen")
		add("Description      ", m.flow.Description, "What do you sell?")
		add("Payment methods  ", m.flow.PaymentMethods, "Cash, M-Pesa, card")
		add("Delivery info    ", m.flow.DeliveryInfo, "Delivery zones and fees")
		add("Greeting message ", m.flow.GreetingMessage, "Hi! How can we help?")
		add("Away message     ", m.flow.AwayMessage, "We're closed right now")
	case onboarding.StepHours:
		add("Business hours   ", m.flow.BusinessHours, "Mon-Sat 9am-6pm")
		add("Location         ", m.flow.Location, "City, street")
	case onboarding.StepCatalogue:
		for _, product := range m.flow.Catalogue {
			add("Name        ", product.Name, "Product name")
			add("Price       ", product.Price, "e.g. 500")
			add("Size        ", product.Size, "e.g. 1kg")
			add("Description ", product.Description, "Optional")
		}
	case onboarding.StepWhatsApp:
		add("Phone number ID  ", m.flow.PhoneNumberID, "From Meta Business")
		add("Access token     ", m.flow.AccessToken, "WhatsApp Cloud API token")
		add("WhatsApp number  ", m.flow.WhatsAppNumber, "+2547…")
	}

	m.inputs = make([]textinput.Model, len(specs))
	for i, spec := range specs {
		input := textinput.New()
		input.Prompt = spec.prompt
		input.Placeholder = spec.placeholder
		input.Width = 36
		input.SetValue(spec.value)
		if m.flow.Step() == onboarding.StepAccount && i == 1 {
			input.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = input
	}

	m.focus = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

// syncToFlow copies the current input values back onto the flow.
func (m *onboardingModel) syncToFlow() {
	value := func(i int) string {
		if i < len(m.inputs) {
			return m.inputs[i].Value()
		}
		return ""
	}

	switch m.flow.Step() {
	case onboarding.StepAccount:
		m.flow.Email = value(0)
		m.flow.Password = value(1)
	case onboarding.StepDetails:
		m.flow.Name = value(0)
		m.flow.Description = value(1)
		m.flow.PaymentMethods = value(2)
		m.flow.DeliveryInfo = value(3)
		m.flow.GreetingMessage = value(4)
		m.flow.AwayMessage = value(5)
	case onboarding.StepHours:
		m.flow.BusinessHours = value(0)
		m.flow.Location = value(1)
	case onboarding.StepCatalogue:
		for i := range m.flow.Catalogue {
			base := i * catalogueFields
			m.flow.Catalogue[i].Name = value(base)
			m.flow.Catalogue[i].Price = value(base + 1)
			m.flow.Catalogue[i].Size = value(base + 2)
			m.flow.Catalogue[i].Description = value(base + 3)
		}
	case onboarding.StepWhatsApp:
		m.flow.PhoneNumberID = value(0)
		m.flow.AccessToken = value(1)
		m.flow.WhatsAppNumber = value(2)
	}
}

func (m onboardingModel) update(msg tea.Msg) (onboardingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = onboarding.ErrorMessage(msg.err)
			return m, nil
		}
		if m.flow.Step() == onboarding.StepDone {
			m.deps.Resolver.CompleteOnboarding(m.flow.BusinessID())
			return m, nil
		}
		m.rebuildInputs()
		return m, textinput.Blink

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.errMsg = ""
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.errMsg = ""
			m.moveFocus(-1)
			return m, nil
		case "enter":
			if m.focus < len(m.inputs)-1 {
				m.moveFocus(1)
				return m, nil
			}
			return m.advance()
		case "ctrl+b":
			m.errMsg = ""
			m.syncToFlow()
			m.flow.Back()
			m.rebuildInputs()
			return m, nil
		case "ctrl+a":
			if m.flow.Step() == onboarding.StepCatalogue {
				m.syncToFlow()
				m.flow.AddProduct()
				m.rebuildInputs()
				return m, nil
			}
		case "ctrl+d":
			if m.flow.Step() == onboarding.StepCatalogue && len(m.flow.Catalogue) > 1 {
				m.syncToFlow()
				m.flow.RemoveProduct(m.focus / catalogueFields)
				m.rebuildInputs()
				return m, nil
			}
		}
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *onboardingModel) moveFocus(delta int) {
	if len(m.inputs) == 0 {
		return
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m onboardingModel) advance() (onboardingModel, tea.Cmd) {
	m.syncToFlow()
	m.busy = true
	m.errMsg = ""
	flow := m.flow
	return m, func() tea.Msg {
		return advanceResultMsg{err: flow.Advance(context.Background())}
	}
}

func (m onboardingModel) view() string {
	if m.flow.Step() == onboarding.StepDone {
		content := brandStyle.Render("Replify") + "\n\n" +
			titleStyle.Render("You're all set!") + "\n" +
			dimStyle.Render("Your business is live. WhatsApp messages will now\nbe handled automatically by Replify.")
		return m.center(paneBorder.Padding(1, 3).Render(content))
	}

	body := brandStyle.Render("Replify") + "\n" +
		dimStyle.Render(m.flow.Progress()) + "\n\n"

	if m.errMsg != "" {
		body += errorStyle.Render(m.errMsg) + "\n\n"
	}

	for i, input := range m.inputs {
		if m.flow.Step() == onboarding.StepCatalogue && i%catalogueFields == 0 {
			body += faintStyle.Render("— product —") + "\n"
		}
		body += input.View() + "\n"
	}

	if m.busy {
		body += "\n" + dimStyle.Render("Working…")
	} else {
		hints := "enter continue · ctrl+b back · ctrl+c quit"
		if m.flow.Step() == onboarding.StepCatalogue {
			hints = "enter continue · ctrl+a add product · ctrl+d remove · ctrl+b back"
		}
		body += "\n" + faintStyle.Render(hints)
	}

	return m.center(paneBorder.Padding(1, 3).Render(body))
}

func (m onboardingModel) center(content string) string {
	if m.width == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
