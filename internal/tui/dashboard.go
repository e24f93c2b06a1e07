package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
	"github.com/nhanhataka-sys/replify-dashboard/internal/inbox"
)

const sidebarWidth = 34

// inboxChangedMsg signals that the synchronizer state moved; the view
// re-renders from a fresh snapshot.
type inboxChangedMsg struct{}

// inboxErrMsg surfaces a failed write action in the status line.
type inboxErrMsg struct {
	err error
}

// replyResultMsg carries the outcome of an async reply submission.
type replyResultMsg struct {
	err error
}

// actionResultMsg carries the outcome of a takeover/resolve/sign-out.
type actionResultMsg struct {
	err error
}

type focusZone int

const (
	focusList focusZone = iota
	focusCompose
)

// dashboardModel renders the inbox synchronizer's snapshot and
// translates keys into synchronizer operations.
type dashboardModel struct {
	deps   Deps
	sync   *inbox.Synchronizer
	events chan struct{}
	errs   chan error

	reply     textarea.Model
	cursor    int
	focus     focusZone
	statusMsg string
	width     int
	height    int
}

func newDashboardModel(deps Deps, sync *inbox.Synchronizer) dashboardModel {
	events := make(chan struct{}, 16)
	errs := make(chan error, 16)

	sync.SetOnChange(func() {
		select {
		case events <- struct{}{}:
		default:
		}
	})
	sync.SetOnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	reply := textarea.New()
	reply.Placeholder = "Type a reply… (enter to send)"
	reply.SetHeight(2)
	reply.CharLimit = 0

	return dashboardModel{
		deps:   deps,
		sync:   sync,
		events: events,
		errs:   errs,
		reply:  reply,
	}
}

// start launches the poll loop and arms the event listeners.
func (m dashboardModel) start() tea.Cmd {
	m.sync.Start(context.Background())
	return tea.Batch(listenInbox(m.events), listenInboxErr(m.errs))
}

// stop tears down the poll loop. Exactly once per dashboard instance.
func (m dashboardModel) stop() {
	if m.sync != nil {
		m.sync.Stop()
	}
}

func (m *dashboardModel) setSize(width, height int) {
	m.width, m.height = width, height
	mainWidth := width - sidebarWidth - 4
	if mainWidth > 20 {
		m.reply.SetWidth(mainWidth)
	}
}

func listenInbox(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return inboxChangedMsg{}
	}
}

func listenInboxErr(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return inboxErrMsg{err: <-ch}
	}
}

func (m dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case inboxChangedMsg:
		return m, listenInbox(m.events)

	case inboxErrMsg:
		m.statusMsg = "Action failed: " + msg.err.Error()
		return m, listenInboxErr(m.errs)

	case replyResultMsg:
		if msg.err == nil {
			// The draft is cleared only on the success path.
			m.reply.Reset()
			m.statusMsg = ""
		}
		return m, nil

	case actionResultMsg:
		if msg.err == nil {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if m.focus == focusCompose {
		switch msg.String() {
		case "esc":
			m.focus = focusList
			m.reply.Blur()
			return m, nil
		case "enter":
			return m.submitReply()
		case "ctrl+j":
			m.reply.InsertString("\n")
			return m, nil
		default:
			var cmd tea.Cmd
			m.reply, cmd = m.reply.Update(msg)
			m.sync.SetDraft(m.reply.Value())
			return m, cmd
		}
	}

	snapshot := m.sync.Snapshot()
	switch msg.String() {
	case "up", "k":
		return m.moveCursor(snapshot, -1), nil
	case "down", "j":
		return m.moveCursor(snapshot, 1), nil
	case "tab":
		m.statusMsg = ""
		m.sync.SetFilter(nextFilter(snapshot.Filter))
		m.cursor = 0
		return m, nil
	case "enter", "i":
		if snapshot.Selected != nil && snapshot.Selected.CanReply() {
			m.focus = focusCompose
			return m, m.reply.Focus()
		}
		return m, nil
	case "t":
		// Mirrors the header: take over only appears while the AI is
		// still handling an unresolved conversation.
		if snapshot.Selected != nil && snapshot.Selected.CanReply() && snapshot.Selected.AIHandling {
			return m.runAction(m.sync.Takeover)
		}
		return m, nil
	case "r":
		if snapshot.Selected != nil && snapshot.Selected.CanReply() {
			return m.runAction(m.sync.Resolve)
		}
		return m, nil
	case "ctrl+r":
		sync := m.sync
		return m, func() tea.Msg {
			sync.Refresh(context.Background())
			return nil
		}
	case "ctrl+o":
		m.stop()
		resolver := m.deps.Resolver
		return m, func() tea.Msg {
			return actionResultMsg{err: resolver.SignOut(context.Background())}
		}
	}
	return m, nil
}

func (m dashboardModel) moveCursor(snapshot inbox.Snapshot, delta int) dashboardModel {
	if len(snapshot.Conversations) == 0 {
		return m
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(snapshot.Conversations) {
		m.cursor = len(snapshot.Conversations) - 1
	}
	m.statusMsg = ""
	m.sync.Select(snapshot.Conversations[m.cursor])
	return m
}

func (m dashboardModel) submitReply() (dashboardModel, tea.Cmd) {
	m.sync.SetDraft(m.reply.Value())
	sync := m.sync
	return m, func() tea.Msg {
		return replyResultMsg{err: sync.SendReply(context.Background())}
	}
}

func (m dashboardModel) runAction(action func(context.Context) error) (dashboardModel, tea.Cmd) {
	m.statusMsg = ""
	return m, func() tea.Msg {
		return actionResultMsg{err: action(context.Background())}
	}
}

func nextFilter(current inbox.StatusFilter) inbox.StatusFilter {
	filters := inbox.Filters()
	for i, filter := range filters {
		if filter == current {
			return filters[(i+1)%len(filters)]
		}
	}
	return inbox.FilterAll
}

func (m dashboardModel) view() string {
	if m.width == 0 {
		return "loading…"
	}

	snapshot := m.sync.Snapshot()
	sidebar := m.renderSidebar(snapshot)
	main := m.renderMain(snapshot)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m dashboardModel) renderSidebar(snapshot inbox.Snapshot) string {
	var b strings.Builder

	b.WriteString(brandStyle.Render("Replify"))
	b.WriteString(faintStyle.Render("  ctrl+o sign out"))
	b.WriteString("\n")
	b.WriteString(m.renderStats(snapshot.Stats))
	b.WriteString("\n")
	b.WriteString(m.renderFilters(snapshot.Filter))
	b.WriteString("\n\n")

	if len(snapshot.Conversations) == 0 {
		b.WriteString(faintStyle.Render("No conversations yet"))
	}

	selectedID := ""
	if snapshot.Selected != nil {
		selectedID = snapshot.Selected.ID
	}

	maxRows := (m.height - 8) / 3
	for i, conversation := range snapshot.Conversations {
		if maxRows > 0 && i >= maxRows {
			b.WriteString(faintStyle.Render(fmt.Sprintf("… %d more", len(snapshot.Conversations)-i)))
			break
		}
		b.WriteString(m.renderConversationRow(conversation, i == m.cursor, conversation.ID == selectedID))
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(colorBorder).
		Render(b.String())
}

func (m dashboardModel) renderStats(stats domain.Stats) string {
	return fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		dimStyle.Render("Total"), titleStyle.Render(fmt.Sprintf("%d", stats.Total)),
		statusStyle(domain.StatusOpen).Render("Open"), titleStyle.Render(fmt.Sprintf("%d", stats.Open)),
		statusStyle(domain.StatusNeedsHuman).Render("Urgent"), titleStyle.Render(fmt.Sprintf("%d", stats.NeedsHuman)),
		statusStyle(domain.StatusResolved).Render("Done"), titleStyle.Render(fmt.Sprintf("%d", stats.Resolved)),
	)
}

func (m dashboardModel) renderFilters(active inbox.StatusFilter) string {
	parts := make([]string, 0, 4)
	for _, filter := range inbox.Filters() {
		label := filter.Label()
		if filter == active {
			parts = append(parts, selectedStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, " ") + faintStyle.Render("  tab")
}

func (m dashboardModel) renderConversationRow(conversation domain.Conversation, cursored, selected bool) string {
	name := truncate(conversation.DisplayName(), 20)
	when := humanize.Time(conversation.LastMessageAt)

	nameStyle := titleStyle
	marker := "  "
	if cursored {
		marker = selectedStyle.Render("> ")
	}
	if selected {
		nameStyle = selectedStyle
	}

	preview := conversation.LastMessage
	if preview == "" {
		preview = "—"
	}

	meta := statusStyle(conversation.Status).Render("● " + statusLabel(conversation.Status))
	if conversation.AIHandling {
		meta += "  " + aiChipStyle.Render("AI")
	}

	return marker + nameStyle.Render(name) + " " + faintStyle.Render(truncate(when, 12)) + "\n" +
		"  " + dimStyle.Render(truncate(preview, sidebarWidth-4)) + "\n" +
		"  " + meta + "\n"
}

func (m dashboardModel) renderMain(snapshot inbox.Snapshot) string {
	mainWidth := m.width - sidebarWidth - 2

	if snapshot.Selected == nil {
		empty := faintStyle.Render("Select a conversation")
		return lipgloss.Place(mainWidth, m.height, lipgloss.Center, lipgloss.Center, empty)
	}

	header := m.renderHeader(snapshot)
	footer := m.renderFooter(snapshot)
	statusLine := ""
	if m.statusMsg != "" {
		statusLine = errorStyle.Render(truncate(m.statusMsg, mainWidth))
	}

	transcriptHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - 2
	transcript := m.renderTranscript(snapshot, mainWidth, transcriptHeight)

	return lipgloss.NewStyle().Width(mainWidth).Render(
		header + "\n" + transcript + "\n" + footer + "\n" + statusLine,
	)
}

func (m dashboardModel) renderHeader(snapshot inbox.Snapshot) string {
	selected := snapshot.Selected

	handling := aiChipStyle.Render("AI handling")
	if !selected.AIHandling {
		handling = humanStyle.Render("Human")
	}

	actions := ""
	if selected.CanReply() {
		if selected.AIHandling {
			actions += humanStyle.Render(" t take over ")
		}
		actions += statusStyle(domain.StatusOpen).Render(" r resolve ")
	}

	return titleStyle.Render(selected.DisplayName()) + "  " +
		statusStyle(selected.Status).Render("● "+statusLabel(selected.Status)) + "  " +
		handling + " " + actions + "\n" +
		faintStyle.Render(strings.Repeat("─", 40))
}

func (m dashboardModel) renderTranscript(snapshot inbox.Snapshot, width, height int) string {
	if snapshot.LoadingMessages {
		return dimStyle.Render("Loading…")
	}
	if len(snapshot.Messages) == 0 {
		return faintStyle.Render("No messages")
	}

	bubbleWidth := width * 7 / 10
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var blocks []string
	for i := range snapshot.Messages {
		blocks = append(blocks, renderMessage(&snapshot.Messages[i], width, bubbleWidth))
	}
	rendered := strings.Join(blocks, "\n")

	// Keep the tail of the transcript in view, like the original's
	// auto-scroll to the newest message.
	lines := strings.Split(rendered, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

// renderMessage lays out one bubble: customer messages left-aligned,
// AI and human-agent messages right-aligned with their accent color.
func renderMessage(message *domain.Message, width, bubbleWidth int) string {
	label := roleStyle(message.Role).Render(roleLabel(message.Role)) +
		" " + faintStyle.Render(humanize.Time(message.CreatedAt))
	content := lipgloss.NewStyle().Width(bubbleWidth).Foreground(colorText).Render(message.Content)
	block := label + "\n" + content

	if message.FromCustomer() {
		return block
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
}

func (m dashboardModel) renderFooter(snapshot inbox.Snapshot) string {
	if snapshot.Selected != nil && !snapshot.Selected.CanReply() {
		return statusStyle(domain.StatusResolved).Render("✓ Conversation resolved")
	}

	hint := faintStyle.Render("enter send · ctrl+j newline · esc back to list")
	if m.focus != focusCompose {
		hint = faintStyle.Render("enter/i compose · t take over · r resolve · tab filter")
	}
	if snapshot.Sending {
		hint = dimStyle.Render("Sending…")
	}
	return m.reply.View() + "\n" + hint
}
