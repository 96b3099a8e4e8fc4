package infrastructure

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

// MemoryBus is an in-process domain.Bus. Every handler runs on its own
// goroutine per publish, so subscribers never block the publisher or each
// other.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]domain.Handler

	inflight sync.WaitGroup
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[string]map[uint64]domain.Handler),
	}
}

// Publish schedules every handler subscribed to topic. It never fails.
func (b *MemoryBus) Publish(ctx context.Context, topic string) error {
	b.mu.RLock()
	handlers := make([]domain.Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	handlerCtx := context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("[LOOKUP_BUS] Handler for %s panicked: %v", topic, r)
				}
			}()
			h(handlerCtx)
		}()
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string, handler domain.Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]domain.Handler)
	}
	b.subs[topic][id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

// Subscribers returns how many handlers listen on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Wait blocks until every handler started so far has returned.
func (b *MemoryBus) Wait() {
	b.inflight.Wait()
}
