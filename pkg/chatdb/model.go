package chatdb

import (
	"context"
	"time"
)

// UnknownHandle is reported as the sender of messages received from a handle
// that cannot be resolved through the handle table.
const UnknownHandle = "unknown"

// Conversation is one chat thread, keyed by its chat_identifier.
type Conversation struct {
	Name       string
	LastActive time.Time
}

// Sender identifies who wrote a message. The zero value is the local user.
type Sender struct {
	handle string
	other  bool
}

// Self is the sender of messages written by the owner of the store.
func Self() Sender { return Sender{} }

// Other is the sender of messages received from handle. An empty handle
// maps to UnknownHandle.
func Other(handle string) Sender {
	if handle == "" {
		handle = UnknownHandle
	}
	return Sender{handle: handle, other: true}
}

func (s Sender) IsSelf() bool { return !s.other }

// Handle returns the counterpart identifier, or "" for Self.
func (s Sender) Handle() string { return s.handle }

func (s Sender) String() string {
	if s.IsSelf() {
		return "me"
	}
	return s.handle
}

type Message struct {
	Text   string
	Sender Sender
	Date   time.Time
}

// Store is the read-only view of a chat database.
type Store interface {
	// ListConversations returns every conversation, most recently active
	// first.
	ListConversations(ctx context.Context) ([]Conversation, error)
	// ListMessages returns the messages of one conversation, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	Close() error
}
