package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mentormind/mentormind/internal/sensay"
)

// Error wraps a failed message exchange with a persona.
type Error struct {
	PersonaID string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversation: persona %s: %v", e.PersonaID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reply is a persona's answer to one message.
type Reply struct {
	Content string
}

// Platform is the subset of the transport client the conversation needs.
type Platform interface {
	Chat(ctx context.Context, userID, replicaID, content string) (sensay.ChatReply, error)
}

// Client relays single messages to a persona. One request per message, no
// retry, no streaming; transport failures and unsuccessful platform replies
// both surface as *Error.
type Client struct {
	platform Platform
}

func NewClient(platform Platform) *Client {
	return &Client{platform: platform}
}

// Send delivers text to the persona and returns its reply.
func (c *Client) Send(ctx context.Context, userID, personaID, text string) (Reply, error) {
	reply, err := c.platform.Chat(ctx, userID, personaID, text)
	if err != nil {
		return Reply{}, &Error{PersonaID: personaID, Err: err}
	}
	if !reply.Success {
		return Reply{}, &Error{PersonaID: personaID, Err: errors.New("platform reported failure")}
	}
	return Reply{Content: reply.Content}, nil
}
