// Package catalog follows the live product collection and exposes the latest
// full snapshot to the rendering layer.
package catalog

import (
	"context"
	"sync"

	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
)

// Update is one item of a subscription stream: a full snapshot, or an error.
type Update struct {
	Products []model.Product
	Err      error
}

// Subscription is a cancelable stream of updates. Updates is closed when the
// stream ends, either after Close or after a terminal error.
type Subscription interface {
	Updates() <-chan Update
	Close() error
}

// Source opens live subscriptions on the product collection.
type Source interface {
	Subscribe(ctx context.Context, id identity.Identity) (Subscription, error)
}

// Namespace is the document path of the product collection for an app.
func Namespace(appID string) string {
	return "artifacts/" + appID + "/public/data/products"
}

type emitFunc func(Update) bool

// stream runs a producer goroutine and hands its updates to one consumer.
type stream struct {
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func newStream(parent context.Context, run func(ctx context.Context, emit emitFunc)) *stream {
	ctx, cancel := context.WithCancel(parent)
	s := &stream{
		updates: make(chan Update),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		run(ctx, func(u Update) bool {
			select {
			case s.updates <- u:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return s
}

func (s *stream) Updates() <-chan Update { return s.updates }

// Close stops the producer and waits for it to exit. Safe to call twice.
func (s *stream) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}
