package loadslot

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrLoaderClosed = errors.New("loadslot: loader closed")

const DefaultWorkers = 4

// Loader runs load operations on a bounded pool of goroutines. Submitting
// never blocks: when every worker is busy the job waits in its own
// goroutine for a free worker.
type Loader struct {
	ctx    context.Context
	cancel context.CancelFunc
	eg     errgroup.Group

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
	notify  func()
}

type LoaderOption func(*Loader)

// WithWorkers bounds the number of concurrently running operations.
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.eg.SetLimit(n)
		}
	}
}

// WithNotify registers fn to be called after every settled load.
func WithNotify(fn func()) LoaderOption {
	return func(l *Loader) { l.notify = fn }
}

func NewLoader(parent context.Context, opts ...LoaderOption) *Loader {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	l := &Loader{ctx: ctx, cancel: cancel}
	l.eg.SetLimit(DefaultWorkers)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetNotify replaces the settle callback. The callback runs on a worker
// goroutine and must not block.
func (l *Loader) SetNotify(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notify = fn
}

func (l *Loader) notifySettled() {
	l.mu.Lock()
	fn := l.notify
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Submit schedules job. The context passed to job is cancelled on Close.
func (l *Loader) Submit(job func(ctx context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoaderClosed
	}
	run := func() error {
		job(l.ctx)
		return nil
	}
	if l.eg.TryGo(run) {
		return nil
	}
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		l.eg.Go(run)
	}()
	return nil
}

// Close cancels running operations and waits for them to return.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.pending.Wait()
	return l.eg.Wait()
}

// Load marks slot as fetching, then runs op on the loader. On success the
// slot becomes ready with op's value; on failure the error is logged and
// the slot becomes failed. It returns the generation of this load.
func Load[T any](l *Loader, slot *Slot[T], op func(ctx context.Context) (T, error)) uint64 {
	gen := slot.begin()
	err := l.Submit(func(ctx context.Context) {
		v, err := op(ctx)
		if err != nil {
			log.Error().Err(err).Str("slot", slot.Name()).Uint64("generation", gen).Msg("load failed")
		}
		if !slot.settle(gen, v, err) {
			log.Debug().Str("slot", slot.Name()).Uint64("generation", gen).Msg("dropped stale load")
			return
		}
		l.notifySettled()
	})
	if err != nil {
		log.Error().Err(err).Str("slot", slot.Name()).Msg("could not schedule load")
		var zero T
		slot.settle(gen, zero, err)
	}
	return gen
}
