package chatsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentormind/mentormind/internal/conversation"
	"github.com/mentormind/mentormind/internal/enrich"
	"github.com/mentormind/mentormind/internal/figures"
	"github.com/mentormind/mentormind/internal/observability"
	"github.com/mentormind/mentormind/internal/sensay"
	"github.com/mentormind/mentormind/internal/transcript"
)

// State is the session lifecycle phase.
type State string

const (
	StateUninitialized    State = "uninitialized"
	StateReady            State = "ready"
	StateWaiting          State = "waiting"
	StateConnectionFailed State = "connection_failed"
	StateEnded            State = "ended"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the append-only session transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotConnected   = errors.New("session is not connected")
	ErrBusy           = errors.New("a message is already in flight")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotFailed      = errors.New("session is not in a failed state")
	ErrEnded          = errors.New("session has ended")
	ErrEmptyMessage   = errors.New("message text is empty")
)

// apologyText is appended verbatim when the persona platform fails mid-chat.
const apologyText = "I'm sorry, I couldn't process your request. Please try again later."

// IdentityResolver resolves the externally supplied user id to a platform user.
type IdentityResolver interface {
	Resolve(ctx context.Context, candidateID string) (sensay.User, error)
}

// PersonaProvisioner returns a stable persona id for a figure descriptor.
type PersonaProvisioner interface {
	GetOrCreateByName(ctx context.Context, userID string, figure figures.Figure) (string, error)
}

// Sender relays one user message to the bound persona.
type Sender interface {
	Send(ctx context.Context, userID, personaID, text string) (conversation.Reply, error)
}

// Enhancer rewrites replies best-effort; its outcome is always usable text.
type Enhancer interface {
	Enhance(ctx context.Context, figureName, question, rawReply string) enrich.Outcome
}

// Deps are the collaborators a controller sequences.
type Deps struct {
	Identity IdentityResolver
	Personas PersonaProvisioner
	Sender   Sender
	Enhancer Enhancer
	Turns    transcript.Store
	Metrics  *observability.Metrics
}

// Controller owns one chat session: one user, one persona binding, one
// ordered in-memory transcript. All operations are mutually exclusive per
// session; a second send while one is in flight is rejected, never queued.
type Controller struct {
	ID     string
	UserID string
	Figure figures.Figure

	deps Deps

	mu             sync.Mutex
	state          State
	provisioning   bool
	inflightCancel context.CancelFunc
	personaID      string
	messages       []Message
	watchers       map[int]chan Message
	nextWatcher    int
	createdAt      time.Time
	lastActivityAt time.Time
}

func NewController(userID string, figure figures.Figure, deps Deps) *Controller {
	now := time.Now().UTC()
	return &Controller{
		ID:             uuid.NewString(),
		UserID:         userID,
		Figure:         figure,
		deps:           deps,
		state:          StateUninitialized,
		watchers:       make(map[int]chan Message),
		createdAt:      now,
		lastActivityAt: now,
	}
}

// Start resolves the user identity and provisions the persona. On success the
// session becomes Ready and the transcript is seeded with the persona's
// greeting; on failure it becomes ConnectionFailed until Retry.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == StateEnded:
		c.mu.Unlock()
		return ErrEnded
	case c.state != StateUninitialized:
		c.mu.Unlock()
		return ErrAlreadyStarted
	case c.provisioning:
		c.mu.Unlock()
		return ErrBusy
	}
	c.provisioning = true
	c.mu.Unlock()

	personaID, err := c.provision(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.provisioning = false
	c.lastActivityAt = time.Now().UTC()
	if c.state == StateEnded {
		return ErrEnded
	}
	if err != nil {
		c.state = StateConnectionFailed
		return err
	}
	c.personaID = personaID
	c.state = StateReady
	if len(c.messages) == 0 {
		c.appendLocked(RoleAssistant, figures.Greeting(c.Figure))
	}
	return nil
}

func (c *Controller) provision(ctx context.Context) (string, error) {
	user, err := c.deps.Identity.Resolve(ctx, c.UserID)
	if err != nil {
		c.countUpstreamError("sensay", "resolve_user")
		return "", err
	}
	personaID, err := c.deps.Personas.GetOrCreateByName(ctx, user.ID, c.Figure)
	if err != nil {
		c.countUpstreamError("sensay", "get_or_create_persona")
		return "", err
	}
	return personaID, nil
}

// Send appends the user message, relays it to the persona, and appends the
// (possibly enhanced) reply. A platform failure is absorbed into the
// transcript as a fixed apology; the session returns to Ready either way.
func (c *Controller) Send(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	switch c.state {
	case StateWaiting:
		c.mu.Unlock()
		return ErrBusy
	case StateEnded:
		c.mu.Unlock()
		return ErrEnded
	case StateReady:
	default:
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.state = StateWaiting
	personaID := c.personaID
	c.appendLocked(RoleUser, text)
	sendCtx, cancel := context.WithCancel(ctx)
	c.inflightCancel = cancel
	c.mu.Unlock()
	defer cancel()

	started := time.Now()
	reply, err := c.deps.Sender.Send(sendCtx, c.UserID, personaID, text)

	content := apologyText
	if err != nil {
		c.countUpstreamError("sensay", "chat")
	} else {
		content = reply.Content
		if c.deps.Enhancer != nil {
			out := c.deps.Enhancer.Enhance(sendCtx, c.Figure.Name, text, reply.Content)
			content = out.Text
			c.countEnrichment(out.Enhanced)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflightCancel = nil
	if c.state == StateEnded {
		// The session was abandoned mid-flight; the result is discarded.
		return ErrEnded
	}
	c.appendLocked(RoleAssistant, content)
	c.state = StateReady
	c.lastActivityAt = time.Now().UTC()
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveReplyLatency(time.Since(started))
	}
	return nil
}

// Retry re-attempts session start after a connection failure.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return ErrEnded
	}
	if c.state != StateConnectionFailed {
		c.mu.Unlock()
		return ErrNotFailed
	}
	c.state = StateUninitialized
	c.mu.Unlock()
	return c.Start(ctx)
}

// End terminates the session, cancels any in-flight upstream request, and
// closes all watchers. A result already on its way back is discarded.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEnded {
		return
	}
	c.state = StateEnded
	if c.inflightCancel != nil {
		c.inflightCancel()
		c.inflightCancel = nil
	}
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PersonaID returns the bound persona id, empty before a successful Start.
func (c *Controller) PersonaID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.personaID
}

// Messages returns a snapshot of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// LastActivityAt reports the time of the last state-changing operation.
func (c *Controller) LastActivityAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivityAt
}

// Subscribe registers a watcher receiving every appended message. The channel
// is closed when the session ends or the cancel function runs. Slow watchers
// miss messages rather than block the session.
func (c *Controller) Subscribe() (<-chan Message, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Message, 64)
	if c.state == StateEnded {
		close(ch)
		return ch, func() {}
	}
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w, ok := c.watchers[id]; ok {
			close(w)
			delete(c.watchers, id)
		}
	}
	return ch, cancel
}

func (c *Controller) appendLocked(role Role, content string) {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	c.messages = append(c.messages, msg)
	for _, ch := range c.watchers {
		select {
		case ch <- msg:
		default:
		}
	}
	if c.deps.Turns != nil {
		// Best-effort persistence; storage trouble never touches the chat.
		_ = c.deps.Turns.SaveTurn(context.Background(), transcript.Turn{
			ID:        msg.ID,
			SessionID: c.ID,
			UserID:    c.UserID,
			PersonaID: c.personaID,
			Role:      string(role),
			Content:   content,
			CreatedAt: msg.CreatedAt,
		})
	}
}

func (c *Controller) countUpstreamError(platform, op string) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.UpstreamErrors.WithLabelValues(platform, op).Inc()
	}
}

func (c *Controller) countEnrichment(enhanced bool) {
	if c.deps.Metrics == nil {
		return
	}
	outcome := "fallback"
	if enhanced {
		outcome = "enhanced"
	}
	c.deps.Metrics.EnrichmentOutcomes.WithLabelValues(outcome).Inc()
}
