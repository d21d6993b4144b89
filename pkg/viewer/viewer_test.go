package viewer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb/chatdbtest"
	"github.com/go-go-golems/chatdb-viewer/pkg/loadslot"
)

// gatedStore holds back ListMessages for a conversation until its gate is
// closed.
type gatedStore struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
}

func newGatedStore(names ...string) *gatedStore {
	g := &gatedStore{gates: map[string]chan struct{}{}}
	for _, n := range names {
		g.gates[n] = make(chan struct{})
	}
	return g
}

func (g *gatedStore) release(name string) { close(g.gates[name]) }

func (g *gatedStore) ListConversations(ctx context.Context) ([]chatdb.Conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return []chatdb.Conversation{{Name: "a"}, {Name: "b"}}, nil
}

func (g *gatedStore) ListMessages(ctx context.Context, id string) ([]chatdb.Message, error) {
	select {
	case <-g.gates[id]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []chatdb.Message{{Text: "from " + id, Sender: chatdb.Other(id)}}, nil
}

func (g *gatedStore) Close() error { return nil }

func newState(t *testing.T, store chatdb.Store, opts ...Option) (*State, <-chan struct{}) {
	t.Helper()
	settled := make(chan struct{}, 16)
	loader := loadslot.NewLoader(context.Background(), loadslot.WithNotify(func() { settled <- struct{}{} }))
	t.Cleanup(func() { _ = loader.Close() })
	return New(store, loader, opts...), settled
}

func waitSettled(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("load did not settle")
	}
}

func TestState_StartsEmpty(t *testing.T) {
	s, _ := newState(t, newGatedStore())
	require.Nil(t, s.Selected())
	require.Equal(t, loadslot.StatusEmpty, s.Conversations().Status)
	require.Equal(t, loadslot.StatusEmpty, s.Messages().Status)
}

func TestState_EndToEndWithFixture(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	f := chatdbtest.TwoChats(t, now)
	s, settled := newState(t, f.Open(t))

	s.InitialLoad()
	waitSettled(t, settled)
	convs := s.Conversations()
	require.True(t, convs.Ready())
	require.Len(t, convs.Value, 2)
	require.Equal(t, "alice", convs.Value[0].Name)
	require.Equal(t, "bob", convs.Value[1].Name)

	s.Select(convs.Value[1])
	require.Equal(t, "bob", s.Selected().Name)
	waitSettled(t, settled)
	msgs := s.Messages()
	require.True(t, msgs.Ready())
	require.Len(t, msgs.Value, 1)
	require.Equal(t, "lunch?", msgs.Value[0].Text)

	s.Select(convs.Value[0])
	waitSettled(t, settled)
	msgs = s.Messages()
	require.Len(t, msgs.Value, 3)
	require.True(t, msgs.Value[1].Sender.IsSelf())
}

func TestState_SelectedIsACopy(t *testing.T) {
	s, _ := newState(t, newGatedStore("a"))
	s.Select(chatdb.Conversation{Name: "a"})
	sel := s.Selected()
	sel.Name = "mutated"
	require.Equal(t, "a", s.Selected().Name)
}

func TestState_OverlappingSelectionsLastCompletedWins(t *testing.T) {
	store := newGatedStore("a", "b")
	s, settled := newState(t, store)

	s.Select(chatdb.Conversation{Name: "a"})
	s.Select(chatdb.Conversation{Name: "b"})
	require.Equal(t, loadslot.StatusFetching, s.Messages().Status)

	store.release("b")
	waitSettled(t, settled)
	require.Equal(t, "from b", s.Messages().Value[0].Text)

	// a finishes last and overwrites b although b is selected
	store.release("a")
	waitSettled(t, settled)
	require.Equal(t, "b", s.Selected().Name)
	require.Equal(t, "from a", s.Messages().Value[0].Text)
}

func TestState_OverlappingSelectionsDropStale(t *testing.T) {
	store := newGatedStore("a", "b")
	s, settled := newState(t, store, WithDropStaleLoads(true))

	s.Select(chatdb.Conversation{Name: "a"})
	s.Select(chatdb.Conversation{Name: "b"})

	store.release("a")
	store.release("b")
	waitSettled(t, settled)
	require.NoError(t, s.loader.Close())
	require.Equal(t, "from b", s.Messages().Value[0].Text)
}

func TestState_FailedLoad(t *testing.T) {
	store := newGatedStore()
	store.err = errors.New("disk I/O error")
	s, settled := newState(t, store)

	s.InitialLoad()
	waitSettled(t, settled)
	snap := s.Conversations()
	require.Equal(t, loadslot.StatusFailed, snap.Status)
	require.EqualError(t, snap.Err, "disk I/O error")
}

func TestState_Reload(t *testing.T) {
	store := newGatedStore("a")
	s, settled := newState(t, store)
	store.release("a")

	s.Reload()
	waitSettled(t, settled)
	require.Equal(t, loadslot.StatusEmpty, s.Messages().Status)

	s.Select(chatdb.Conversation{Name: "a"})
	waitSettled(t, settled)

	s.Reload()
	require.Equal(t, uint64(2), s.Conversations().Generation)
	require.Equal(t, uint64(2), s.Messages().Generation)
	waitSettled(t, settled)
	waitSettled(t, settled)
	require.True(t, s.Conversations().Ready())
	require.True(t, s.Messages().Ready())
}
