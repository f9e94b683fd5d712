// Package outcome – result delivery.
//
// Channel is the single-writer, multi-reader slot a screen observes for the
// latest Outcome of an operation. Publishing overwrites the slot (last write
// wins across racing invocations) and fans out to subscribers without ever
// blocking the publisher. Subscribe returns an explicit unsubscribe handle;
// tearing a subscriber down through its handle is the only way to detach it,
// which keeps one-shot listeners (like the upload step of the create-book
// flow) from firing more than once.
package outcome

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Channel is a single-slot holder for the most recent Outcome of one logical
// operation. The zero value is not usable; construct with NewChannel.
type Channel[T any] struct {
	mu     sync.Mutex
	latest Outcome[T]
	has    bool
	subs   map[int]chan Outcome[T]
	nextID int
}

// NewChannel constructs an empty Channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{subs: make(map[int]chan Outcome[T])}
}

// Subscribe registers an observer and returns its receive channel together
// with an unsubscribe function. The receive channel is buffered; when the
// observer lags, older outcomes are dropped so it always sees the newest.
// Unsubscribe is idempotent and closes the receive channel.
func (c *Channel[T]) Subscribe() (<-chan Outcome[T], func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan Outcome[T], 4)
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish stores o as the latest outcome and fans it out to all subscribers.
// The publisher never blocks: a full subscriber buffer loses its oldest
// entry first.
func (c *Channel[T]) Publish(o Outcome[T]) {
	c.mu.Lock()
	c.latest = o
	c.has = true
	for _, sub := range c.subs {
		for {
			select {
			case sub <- o:
			default:
				select {
				case <-sub:
				default:
				}
				continue
			}
			break
		}
	}
	c.mu.Unlock()
}

// Latest returns the most recent Outcome and whether one has been published
// since construction or the last Reset.
func (c *Channel[T]) Latest() (Outcome[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.has
}

// Reset clears the slot back to "no result yet". Subscribers stay attached.
func (c *Channel[T]) Reset() {
	c.mu.Lock()
	c.latest = Outcome[T]{}
	c.has = false
	c.mu.Unlock()
}

// Run launches op on its own goroutine, classifies any failure, and publishes
// exactly one Outcome tagged with a fresh invocation ID, which Run returns
// immediately. Racing invocations on the same channel are independent;
// whichever completes last determines the published outcome.
//
// When ctx is canceled before op completes, the eventual result is abandoned:
// it is logged at debug level and never published, matching the lifetime rule
// that a torn-down screen stops observing.
func Run[T any](ctx context.Context, p *Pipeline, ch *Channel[T], name string, op func(context.Context) (T, error)) string {
	inv := uuid.NewString()
	go func() {
		value, err := op(ctx)

		if ctx.Err() != nil {
			p.Log.Debug().
				Str("op", name).
				Str("invocation", inv).
				AnErr("cause", ctx.Err()).
				Msg("outcome abandoned")
			return
		}

		o := Outcome[T]{Invocation: inv}
		if err != nil {
			o.Kind, o.Message = p.Classify(err)
			o.Err = err
			p.Log.Debug().
				Str("op", name).
				Str("invocation", inv).
				Str("kind", o.Kind.String()).
				Err(err).
				Msg("operation failed")
		} else {
			o.Value = value
		}
		ch.Publish(o)
	}()
	return inv
}
