// Package viewer holds the application state of the chat viewer: the store,
// the conversation list, the current selection and its messages.
package viewer

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
	"github.com/go-go-golems/chatdb-viewer/pkg/loadslot"
)

type Option func(*options)

type options struct {
	dropStale bool
}

// WithDropStaleLoads makes the message slot keep only the most recently
// requested conversation's messages when selections overlap.
func WithDropStaleLoads(drop bool) Option {
	return func(o *options) { o.dropStale = drop }
}

type State struct {
	store  chatdb.Store
	loader *loadslot.Loader

	conversations *loadslot.Slot[[]chatdb.Conversation]
	messages      *loadslot.Slot[[]chatdb.Message]

	mu       sync.Mutex
	selected *chatdb.Conversation
}

func New(store chatdb.Store, loader *loadslot.Loader, opts ...Option) *State {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	policy := loadslot.LastCompletedWins
	if o.dropStale {
		policy = loadslot.LatestStartedWins
	}
	return &State{
		store:         store,
		loader:        loader,
		conversations: loadslot.New[[]chatdb.Conversation]("conversations"),
		messages:      loadslot.New[[]chatdb.Message]("messages", loadslot.WithPolicy(policy)),
	}
}

// InitialLoad starts loading the conversation list.
func (s *State) InitialLoad() {
	loadslot.Load(s.loader, s.conversations, s.store.ListConversations)
}

// Select makes conv the current conversation and starts loading its
// messages. A load for a previous selection is not cancelled.
func (s *State) Select(conv chatdb.Conversation) {
	s.mu.Lock()
	s.selected = &conv
	s.mu.Unlock()

	log.Debug().Str("conversation", conv.Name).Msg("selected conversation")
	name := conv.Name
	loadslot.Load(s.loader, s.messages, func(ctx context.Context) ([]chatdb.Message, error) {
		return s.store.ListMessages(ctx, name)
	})
}

// Reload refreshes the conversation list and the selected conversation.
func (s *State) Reload() {
	s.InitialLoad()
	if sel := s.Selected(); sel != nil {
		s.Select(*sel)
	}
}

// Selected returns a copy of the current selection, or nil.
func (s *State) Selected() *chatdb.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	c := *s.selected
	return &c
}

func (s *State) Conversations() loadslot.Snapshot[[]chatdb.Conversation] {
	return s.conversations.Get()
}

func (s *State) Messages() loadslot.Snapshot[[]chatdb.Message] {
	return s.messages.Get()
}
