// Package eventbus relays command lifecycle events to the providers that
// subscribed to them. A Bus knows nothing about palette state; it only maps
// (kind, command id) pairs to handlers.
package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind is a lifecycle event kind.
type Kind string

const (
	// Focus fires when a result becomes the highlighted one.
	Focus Kind = "focus"
	// Blur fires when a result loses the highlight.
	Blur Kind = "blur"
	// Execute fires when a command's action starts.
	Execute Kind = "execute"
	// Done fires when a command's action settles.
	Done Kind = "done"
	// Appear fires when a result enters the ranked list.
	Appear Kind = "appear"
)

// Kinds returns every event kind.
func Kinds() []Kind {
	return []Kind{Focus, Blur, Execute, Done, Appear}
}

// Event is one notification for one command.
type Event struct {
	CommandID string
	Kind      Kind
}

func (e Event) String() string {
	return string(e.Kind) + ":" + e.CommandID
}

// Handler receives events.
type Handler func(Event)

// ErrHandler receives events and may report a failure.
type ErrHandler func(Event) error

// Logger receives handler failures. *logging.Logger implementations
// satisfy it.
type Logger interface {
	Error(msg string, args ...any)
}

type key struct {
	kind Kind
	id   string
}

type subscription struct {
	handler ErrHandler
	removed atomic.Bool
}

// Bus is a pub/sub registry keyed by (kind, command id). It is safe for
// concurrent use and tolerates handlers that subscribe or unsubscribe while
// an event is being delivered.
type Bus struct {
	mu       sync.Mutex
	subs     map[key][]*subscription
	logger   Logger
	failures atomic.Int64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger logs handler failures to l.
func WithLogger(l Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{subs: make(map[key][]*subscription)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events of kind about commandID and returns a
// function that removes it. Registering the same handler twice makes it
// fire twice. The returned function is idempotent.
func (b *Bus) Subscribe(kind Kind, commandID string, h Handler) (unsubscribe func()) {
	return b.SubscribeErr(kind, commandID, func(e Event) error {
		h(e)
		return nil
	})
}

// SubscribeErr is Subscribe for handlers that return an error. Errors are
// logged and counted like panics.
func (b *Bus) SubscribeErr(kind Kind, commandID string, h ErrHandler) (unsubscribe func()) {
	sub := &subscription{handler: h}
	k := key{kind: kind, id: commandID}

	b.mu.Lock()
	// Copy on write: Notify iterates over the slice it read under the lock.
	list := b.subs[k]
	next := make([]*subscription, len(list), len(list)+1)
	copy(next, list)
	b.subs[k] = append(next, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.removed.Store(true)
			b.remove(k, sub)
		})
	}
}

func (b *Bus) remove(k key, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[k]
	next := make([]*subscription, 0, len(list))
	for _, s := range list {
		if s != sub {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(b.subs, k)
		return
	}
	b.subs[k] = next
}

// Notify delivers each event in order. For every event, the handlers
// registered for its (kind, id) when its delivery starts are called
// synchronously in subscription order, skipping any removed meanwhile.
// A failing handler does not stop the others.
func (b *Bus) Notify(batch []Event) {
	for _, e := range batch {
		b.mu.Lock()
		list := b.subs[key{kind: e.Kind, id: e.CommandID}]
		b.mu.Unlock()

		for _, sub := range list {
			if sub.removed.Load() {
				continue
			}
			b.call(sub, e)
		}
	}
}

// Emit notifies a single event.
func (b *Bus) Emit(kind Kind, commandID string) {
	b.Notify([]Event{{CommandID: commandID, Kind: kind}})
}

func (b *Bus) call(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.fail(e, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := sub.handler(e); err != nil {
		b.fail(e, err)
	}
}

func (b *Bus) fail(e Event, err error) {
	b.failures.Add(1)
	if b.logger != nil {
		b.logger.Error("event handler failed", "event", e.String(), "error", err)
	}
}

// Failures returns how many handler calls panicked or returned an error.
func (b *Bus) Failures() int64 {
	return b.failures.Load()
}

// Subscribers returns the number of handlers registered for (kind, id).
func (b *Bus) Subscribers(kind Kind, commandID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key{kind: kind, id: commandID}])
}
