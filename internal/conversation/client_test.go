package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/mentormind/mentormind/internal/sensay"
)

type fakeChat struct {
	reply sensay.ChatReply
	err   error
}

func (f *fakeChat) Chat(_ context.Context, _, _, _ string) (sensay.ChatReply, error) {
	return f.reply, f.err
}

func TestSendReturnsReplyContent(t *testing.T) {
	c := NewClient(&fakeChat{reply: sensay.ChatReply{Success: true, Content: "E = mc^2."}})

	reply, err := c.Send(context.Background(), "u1", "rep-1", "Explain relativity")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Content != "E = mc^2." {
		t.Fatalf("Content = %q, want %q", reply.Content, "E = mc^2.")
	}
}

func TestSendWrapsTransportFailure(t *testing.T) {
	boom := &sensay.APIError{Status: 502, Body: "bad gateway"}
	c := NewClient(&fakeChat{err: boom})

	_, err := c.Send(context.Background(), "u1", "rep-1", "hello")
	var convErr *Error
	if !errors.As(err, &convErr) {
		t.Fatalf("Send() error = %v, want *conversation.Error", err)
	}
	var apiErr *sensay.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error does not wrap transport failure: %v", err)
	}
}

func TestSendRejectsUnsuccessfulReply(t *testing.T) {
	c := NewClient(&fakeChat{reply: sensay.ChatReply{Success: false}})

	_, err := c.Send(context.Background(), "u1", "rep-1", "hello")
	var convErr *Error
	if !errors.As(err, &convErr) {
		t.Fatalf("Send() error = %v, want *conversation.Error for success=false", err)
	}
}
