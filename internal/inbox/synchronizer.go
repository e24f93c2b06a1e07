// Package inbox keeps the conversation inbox synchronized with the backend.
//
// The synchronizer holds a transient, refreshable cache: the
// conversation list, the stats aggregate, and the transcript of the
// selected conversation. Cache entries are replaced wholesale on each
// fetch. Read failures are swallowed (stale data beats an error
// screen); write failures roll back any optimistic update and surface
// through the error callback.
package inbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

// StatusFilter narrows the conversation list by status.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterOpen       StatusFilter = "open"
	FilterNeedsHuman StatusFilter = "needs_human"
	FilterResolved   StatusFilter = "resolved"
)

// Label returns the filter tab caption.
func (f StatusFilter) Label() string {
	switch f {
	case FilterOpen:
		return "Open"
	case FilterNeedsHuman:
		return "Urgent"
	case FilterResolved:
		return "Resolved"
	default:
		return "All"
	}
}

// query returns the status query parameter value; empty means no filter.
func (f StatusFilter) query() string {
	if f == FilterAll || f == "" {
		return ""
	}
	return string(f)
}

// Filters lists the filter tabs in display order.
func Filters() []StatusFilter {
	return []StatusFilter{FilterAll, FilterOpen, FilterNeedsHuman, FilterResolved}
}

// Reply preconditions.
var (
	ErrNoSelection          = errors.New("no conversation selected")
	ErrEmptyReply           = errors.New("reply is empty")
	ErrReplyInFlight        = errors.New("a reply is already being sent")
	ErrConversationResolved = errors.New("conversation is resolved")
)

// API is the slice of the backend client the synchronizer needs.
type API interface {
	ListConversations(ctx context.Context, businessID, status string) ([]domain.Conversation, error)
	GetStats(ctx context.Context, businessID string) (*domain.Stats, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	SendReply(ctx context.Context, conversationID, message string) error
	Takeover(ctx context.Context, conversationID string) error
	Resolve(ctx context.Context, conversationID string) error
}

// Snapshot is a copy of the synchronizer state for rendering.
type Snapshot struct {
	Conversations   []domain.Conversation
	Stats           domain.Stats
	Filter          StatusFilter
	Selected        *domain.Conversation
	Messages        []domain.Message
	LoadingMessages bool
	Draft           string
	Sending         bool
}

// Synchronizer maintains the inbox cache for one business.
type Synchronizer struct {
	api        API
	businessID string
	interval   time.Duration
	logger     *slog.Logger

	mu             sync.Mutex
	conversations  []domain.Conversation
	stats          domain.Stats
	filter         StatusFilter
	selected       *domain.Conversation
	messages       []domain.Message
	loadingMsgs    bool
	draft          string
	sending        bool
	selectGen      uint64
	refreshing     bool
	refreshPending bool
	ctx            context.Context
	cancel         context.CancelFunc

	onChange func()
	onError  func(error)
}

// New creates a synchronizer for a business. Nothing is fetched until
// Start is called.
func New(backend API, businessID string, interval time.Duration, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		api:        backend,
		businessID: businessID,
		interval:   interval,
		filter:     FilterAll,
		logger:     logger,
	}
}

// SetOnChange registers the callback invoked after every state change.
// Must be set before Start.
func (s *Synchronizer) SetOnChange(fn func()) {
	s.onChange = fn
}

// SetOnError registers the callback invoked when a write action fails.
// Must be set before Start.
func (s *Synchronizer) SetOnError(fn func(error)) {
	s.onError = fn
}

// Start runs an immediate refresh and then polls at the configured
// interval until ctx is cancelled or Stop is called.
func (s *Synchronizer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.ctx = ctx
	s.cancel = cancel
	s.mu.Unlock()

	go s.pollLoop(ctx)
}

// Stop cancels the poll loop. No further fetches are issued once Stop
// returns and the in-flight tick, if any, drains.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Synchronizer) pollLoop(ctx context.Context) {
	s.refreshAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

// refreshAll fetches conversations and stats. Single-flight with
// coalescing: a refresh requested while one is already running never
// stacks a concurrent fetch against a slow backend, but it is not
// lost either — the running refresh reruns once more when it
// finishes, so a filter change that collides with an in-flight fetch
// still gets its own result.
func (s *Synchronizer) refreshAll(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.refreshPending = true
		s.mu.Unlock()
		s.logger.Debug("coalescing refresh, previous one still in flight")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	for {
		s.refreshConversations(ctx)
		s.refreshStats(ctx)

		s.mu.Lock()
		if !s.refreshPending || ctx.Err() != nil {
			s.refreshing = false
			s.refreshPending = false
			s.mu.Unlock()
			return
		}
		s.refreshPending = false
		s.mu.Unlock()
	}
}

// refreshConversations replaces the cached list. Failures are logged
// and swallowed; the stale list stays visible.
func (s *Synchronizer) refreshConversations(ctx context.Context) {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	conversations, err := s.api.ListConversations(ctx, s.businessID, filter.query())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("refresh conversations failed", "business_id", s.businessID, "error", err)
		}
		return
	}

	s.mu.Lock()
	if filter != s.filter {
		// Filter changed while this fetch was in flight; the newer
		// filter's own fetch owns the list now.
		s.mu.Unlock()
		return
	}
	s.conversations = conversations
	s.mu.Unlock()
	s.notify()
}

// refreshStats replaces the cached aggregate with the same failure
// policy as refreshConversations.
func (s *Synchronizer) refreshStats(ctx context.Context) {
	stats, err := s.api.GetStats(ctx, s.businessID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("refresh stats failed", "business_id", s.businessID, "error", err)
		}
		return
	}

	s.mu.Lock()
	s.stats = *stats
	s.mu.Unlock()
	s.notify()
}

// Refresh runs an immediate conversations+stats fetch, subject to the
// same single-flight guard as the poll loop.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.refreshAll(ctx)
}

// SetFilter changes the status filter and refetches.
func (s *Synchronizer) SetFilter(filter StatusFilter) {
	s.mu.Lock()
	if s.filter == filter {
		s.mu.Unlock()
		return
	}
	s.filter = filter
	ctx := s.ctx
	s.mu.Unlock()
	s.notify()

	if ctx != nil {
		go s.refreshAll(ctx)
	}
}

// Select makes a conversation active and fetches its transcript.
// Each selection bumps a generation counter; a response for a
// conversation that is no longer selected is discarded.
func (s *Synchronizer) Select(conversation domain.Conversation) {
	s.mu.Lock()
	selected := conversation
	s.selected = &selected
	s.messages = nil
	s.loadingMsgs = true
	s.selectGen++
	generation := s.selectGen
	ctx := s.ctx
	s.mu.Unlock()
	s.notify()

	if ctx == nil {
		ctx = context.Background()
	}
	go s.fetchMessages(ctx, generation, conversation.ID)
}

// Deselect clears the active conversation.
func (s *Synchronizer) Deselect() {
	s.mu.Lock()
	s.selected = nil
	s.messages = nil
	s.loadingMsgs = false
	s.selectGen++
	s.mu.Unlock()
	s.notify()
}

func (s *Synchronizer) fetchMessages(ctx context.Context, generation uint64, conversationID string) {
	messages, err := s.api.ListMessages(ctx, conversationID)

	s.mu.Lock()
	if generation != s.selectGen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale message fetch", "conversation_id", conversationID)
		return
	}
	s.loadingMsgs = false
	if err != nil {
		// Transcript clears silently; the next selection retries.
		s.messages = nil
		s.mu.Unlock()
		s.logger.Warn("fetch messages failed", "conversation_id", conversationID, "error", err)
	} else {
		s.messages = messages
		s.mu.Unlock()
	}
	s.notify()
}

// SetDraft updates the composed reply text.
func (s *Synchronizer) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the composed reply text.
func (s *Synchronizer) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SendReply posts the current draft to the selected conversation,
// then refetches the transcript and the conversation list so the
// just-sent message and the updated preview are visible. The draft is
// cleared only when the post succeeds; on failure it is preserved so
// the user can retry. A resolved conversation rejects the reply
// locally without any network call.
func (s *Synchronizer) SendReply(ctx context.Context) error {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	if !s.selected.CanReply() {
		s.mu.Unlock()
		return ErrConversationResolved
	}
	text := strings.TrimSpace(s.draft)
	if text == "" {
		s.mu.Unlock()
		return ErrEmptyReply
	}
	if s.sending {
		s.mu.Unlock()
		return ErrReplyInFlight
	}
	s.sending = true
	conversationID := s.selected.ID
	generation := s.selectGen
	s.mu.Unlock()
	s.notify()

	err := s.api.SendReply(ctx, conversationID, text)
	if err != nil {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
		s.notify()
		s.logger.Warn("send reply failed", "conversation_id", conversationID, "error", err)
		s.reportError(err)
		return err
	}

	s.mu.Lock()
	s.sending = false
	s.draft = ""
	s.mu.Unlock()
	s.notify()

	// The transcript refetch happens only after the post succeeded, so
	// the displayed messages include at least the just-sent reply.
	s.fetchMessages(ctx, generation, conversationID)
	s.refreshConversations(ctx)
	return nil
}

// Takeover disables AI handling for the selected conversation. The
// local copy is updated optimistically; a failed POST rolls it back.
func (s *Synchronizer) Takeover(ctx context.Context) error {
	return s.mutateSelected(ctx, "takeover", s.api.Takeover, func(c *domain.Conversation) {
		c.AIHandling = false
		c.Status = domain.StatusNeedsHuman
	})
}

// Resolve closes the selected conversation, with the same optimistic
// update and rollback behavior as Takeover.
func (s *Synchronizer) Resolve(ctx context.Context) error {
	return s.mutateSelected(ctx, "resolve", s.api.Resolve, func(c *domain.Conversation) {
		c.Status = domain.StatusResolved
		c.AIHandling = false
	})
}

// mutateSelected applies an optimistic mutation to the selected
// conversation, posts it, and either confirms (background refresh) or
// rolls back to the pre-mutation copy.
func (s *Synchronizer) mutateSelected(ctx context.Context, name string, post func(context.Context, string) error, mutate func(*domain.Conversation)) error {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	previous := *s.selected
	mutate(s.selected)
	conversationID := s.selected.ID
	s.mu.Unlock()
	s.notify()

	if err := post(ctx, conversationID); err != nil {
		s.mu.Lock()
		if s.selected != nil && s.selected.ID == previous.ID {
			restored := previous
			s.selected = &restored
		}
		s.mu.Unlock()
		s.notify()
		s.logger.Warn(name+" failed, rolled back", "conversation_id", conversationID, "error", err)
		s.reportError(err)
		return err
	}

	s.logger.Info(name+" applied", "conversation_id", conversationID)
	go s.refreshConversations(ctx)
	return nil
}

// Snapshot returns a copy of the current state for rendering.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Conversations:   append([]domain.Conversation(nil), s.conversations...),
		Stats:           s.stats,
		Filter:          s.filter,
		Messages:        append([]domain.Message(nil), s.messages...),
		LoadingMessages: s.loadingMsgs,
		Draft:           s.draft,
		Sending:         s.sending,
	}
	if s.selected != nil {
		selected := *s.selected
		snapshot.Selected = &selected
	}
	return snapshot
}

func (s *Synchronizer) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Synchronizer) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
