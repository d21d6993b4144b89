package loadslot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, opts ...LoaderOption) (*Loader, <-chan struct{}) {
	t.Helper()
	settled := make(chan struct{}, 16)
	opts = append(opts, WithNotify(func() { settled <- struct{}{} }))
	l := NewLoader(context.Background(), opts...)
	t.Cleanup(func() { _ = l.Close() })
	return l, settled
}

func waitSettled(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("load did not settle")
	}
}

func TestSlot_ZeroValueIsEmpty(t *testing.T) {
	var s Slot[[]string]
	snap := s.Get()
	require.Equal(t, StatusEmpty, snap.Status)
	require.Nil(t, snap.Value)
	require.Equal(t, uint64(0), snap.Generation)
}

func TestSlot_SetKeepsGeneration(t *testing.T) {
	s := New[int]("n")
	s.begin()
	s.SetReady(7)
	snap := s.Get()
	require.Equal(t, StatusReady, snap.Status)
	require.Equal(t, 7, snap.Value)
	require.Equal(t, uint64(1), snap.Generation)
	require.Equal(t, uint64(2), snap.Revision)
}

func TestLoad_FetchingThenReady(t *testing.T) {
	l, settled := newTestLoader(t)
	s := New[[]string]("chats")
	gate := make(chan struct{})

	gen := Load(l, s, func(ctx context.Context) ([]string, error) {
		<-gate
		return []string{"alice", "bob"}, nil
	})
	require.Equal(t, uint64(1), gen)

	snap := s.Get()
	require.Equal(t, StatusFetching, snap.Status)
	require.Nil(t, snap.Value)

	close(gate)
	waitSettled(t, settled)

	snap = s.Get()
	require.Equal(t, StatusReady, snap.Status)
	require.Equal(t, []string{"alice", "bob"}, snap.Value)
}

func TestLoad_FailureSetsFailed(t *testing.T) {
	l, settled := newTestLoader(t)
	s := New[int]("n")
	boom := errors.New("boom")

	Load(l, s, func(ctx context.Context) (int, error) { return 0, errors.Wrap(boom, "query") })
	waitSettled(t, settled)

	snap := s.Get()
	require.Equal(t, StatusFailed, snap.Status)
	require.ErrorIs(t, snap.Err, boom)
}

func TestLoad_ReplacesPreviousValue(t *testing.T) {
	l, settled := newTestLoader(t)
	s := New[int]("n")

	Load(l, s, func(ctx context.Context) (int, error) { return 1, nil })
	waitSettled(t, settled)
	require.Equal(t, 1, s.Get().Value)

	gate := make(chan struct{})
	Load(l, s, func(ctx context.Context) (int, error) { <-gate; return 2, nil })
	require.Equal(t, StatusFetching, s.Get().Status)
	close(gate)
	waitSettled(t, settled)
	require.Equal(t, 2, s.Get().Value)
}

// overlapping runs load a then load b into one slot; b finishes first.
func overlapping(t *testing.T, policy Policy) Snapshot[string] {
	l, settled := newTestLoader(t)
	s := New[string]("messages", WithPolicy(policy))
	gateA := make(chan struct{})
	gateB := make(chan struct{})

	Load(l, s, func(ctx context.Context) (string, error) { <-gateA; return "a", nil })
	Load(l, s, func(ctx context.Context) (string, error) { <-gateB; return "b", nil })

	close(gateB)
	waitSettled(t, settled)
	require.Equal(t, "b", s.Get().Value)

	close(gateA)
	// Close waits for a to finish, whether it was kept or dropped.
	require.NoError(t, l.Close())
	return s.Get()
}

func TestLoad_LastCompletedWins(t *testing.T) {
	snap := overlapping(t, LastCompletedWins)
	require.Equal(t, StatusReady, snap.Status)
	require.Equal(t, "a", snap.Value)
	require.Equal(t, uint64(2), snap.Generation)
}

func TestLoad_LatestStartedWins(t *testing.T) {
	snap := overlapping(t, LatestStartedWins)
	require.Equal(t, StatusReady, snap.Status)
	require.Equal(t, "b", snap.Value)
}

func TestLoad_AfterCloseFails(t *testing.T) {
	l := NewLoader(context.Background())
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	s := New[int]("n")
	Load(l, s, func(ctx context.Context) (int, error) { return 1, nil })
	snap := s.Get()
	require.Equal(t, StatusFailed, snap.Status)
	require.ErrorIs(t, snap.Err, ErrLoaderClosed)
}

func TestLoader_CloseCancelsContext(t *testing.T) {
	l := NewLoader(context.Background())
	s := New[int]("n")
	started := make(chan struct{})

	Load(l, s, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started
	require.NoError(t, l.Close())

	snap := s.Get()
	require.Equal(t, StatusFailed, snap.Status)
	require.ErrorIs(t, snap.Err, context.Canceled)
}

func TestLoader_SubmitDoesNotBlockWhenSaturated(t *testing.T) {
	l, settled := newTestLoader(t, WithWorkers(1))
	gate := make(chan struct{})
	slots := make([]*Slot[int], 5)

	done := make(chan struct{})
	go func() {
		for i := range slots {
			slots[i] = New[int]("n")
			i := i
			Load(l, slots[i], func(ctx context.Context) (int, error) { <-gate; return i, nil })
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Load blocked on a saturated pool")
	}

	close(gate)
	for range slots {
		waitSettled(t, settled)
	}
	for i, s := range slots {
		require.Equal(t, i, s.Get().Value)
	}
}

func TestSlot_ConcurrentAccess(t *testing.T) {
	s := New[[]int]("n")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			gen := s.begin()
			s.settle(gen, []int{i, i}, nil)
		}(i)
		go func() {
			defer wg.Done()
			snap := s.Get()
			if snap.Ready() && assert.Len(t, snap.Value, 2) {
				assert.Equal(t, snap.Value[0], snap.Value[1])
			}
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(8), s.Get().Generation)
}
