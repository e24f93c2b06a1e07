package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhanhataka-sys/replify-dashboard/internal/api"
	"github.com/nhanhataka-sys/replify-dashboard/internal/auth"
	"github.com/nhanhataka-sys/replify-dashboard/internal/config"
	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
	"github.com/nhanhataka-sys/replify-dashboard/internal/inbox"
	"github.com/nhanhataka-sys/replify-dashboard/internal/session"
)

// Deps are the collaborators the shell wires into its sub-views.
type Deps struct {
	Config   *config.Config
	API      *api.Client
	Auth     auth.Client
	Resolver *session.Resolver
	Logger   *slog.Logger
}

// sessionMsg delivers a resolver state change through the message loop.
type sessionMsg session.State

// Shell is the root model. It mirrors the resolver's view and hosts
// the sub-model for whichever view is active.
type Shell struct {
	deps      Deps
	state     session.State
	sessionCh chan session.State

	spin      spinner.Model
	login     loginModel
	onboard   onboardingModel
	dashboard dashboardModel

	width  int
	height int
}

// NewShell creates the root model and subscribes to resolver changes.
func NewShell(deps Deps) *Shell {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	sessionCh := make(chan session.State, 16)
	deps.Resolver.Subscribe(func(state session.State) {
		select {
		case sessionCh <- state:
		default:
			deps.Logger.Warn("dropping session state update, channel full")
		}
	})

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return &Shell{
		deps:      deps,
		state:     deps.Resolver.State(),
		sessionCh: sessionCh,
		spin:      spin,
		login:     newLoginModel(deps),
		onboard:   newOnboardingModel(deps),
	}
}

func listenSession(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(<-ch)
	}
}

func (s *Shell) Init() tea.Cmd {
	return tea.Batch(listenSession(s.sessionCh), s.spin.Tick)
}

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		s.login.setSize(msg.Width, msg.Height)
		s.onboard.setSize(msg.Width, msg.Height)
		if s.state.View == domain.ViewDashboard {
			s.dashboard.setSize(msg.Width, msg.Height)
		}
		return s, nil

	case sessionMsg:
		return s, tea.Batch(s.applyState(session.State(msg)), listenSession(s.sessionCh))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s.teardown()
			return s, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd
	}

	return s, s.delegate(msg)
}

// applyState swaps the active sub-view when the resolver's view
// changes. Entering the dashboard constructs and starts its inbox
// synchronizer; leaving it tears the synchronizer down.
func (s *Shell) applyState(next session.State) tea.Cmd {
	previous := s.state
	s.state = next
	if previous.View == next.View && previous.BusinessID == next.BusinessID {
		return nil
	}

	if previous.View == domain.ViewDashboard {
		s.dashboard.stop()
	}

	switch next.View {
	case domain.ViewDashboard:
		sync := inbox.New(s.deps.API, next.BusinessID, s.deps.Config.PollInterval, s.deps.Logger)
		s.dashboard = newDashboardModel(s.deps, sync)
		s.dashboard.setSize(s.width, s.height)
		return s.dashboard.start()
	case domain.ViewLogin:
		s.login = newLoginModel(s.deps)
		s.login.setSize(s.width, s.height)
		return s.login.focusCmd()
	case domain.ViewOnboarding:
		s.onboard = newOnboardingModel(s.deps)
		s.onboard.setSize(s.width, s.height)
		return s.onboard.focusCmd()
	default:
		return nil
	}
}

func (s *Shell) delegate(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.state.View {
	case domain.ViewLogin:
		s.login, cmd = s.login.update(msg)
	case domain.ViewOnboarding:
		s.onboard, cmd = s.onboard.update(msg)
	case domain.ViewDashboard:
		s.dashboard, cmd = s.dashboard.update(msg)
	}
	return cmd
}

func (s *Shell) teardown() {
	if s.state.View == domain.ViewDashboard {
		s.dashboard.stop()
	}
}

func (s *Shell) View() string {
	switch s.state.View {
	case domain.ViewLogin:
		return s.login.view()
	case domain.ViewOnboarding:
		return s.onboard.view()
	case domain.ViewDashboard:
		return s.dashboard.view()
	default:
		return s.checkingView()
	}
}

func (s *Shell) checkingView() string {
	content := brandStyle.Render("Replify") + "\n\n" + s.spin.View() + dimStyle.Render(" checking session…")
	if s.width == 0 {
		return content
	}
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, content)
}
