package infrastructure

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

func TestMemoryBus_DeliversToEverySubscriber(t *testing.T) {
	bus := NewMemoryBus()
	var hits atomic.Int32
	for i := 0; i < 4; i++ {
		bus.Subscribe(domain.TopicLookupsChanged, func(context.Context) { hits.Add(1) })
	}
	bus.Subscribe("other", func(context.Context) { t.Error("wrong topic delivered") })

	assert.NoError(t, bus.Publish(context.Background(), domain.TopicLookupsChanged))
	bus.Wait()

	assert.Equal(t, int32(4), hits.Load())
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	var hits atomic.Int32
	unsubscribe := bus.Subscribe(domain.TopicLookupsChanged, func(context.Context) { hits.Add(1) })

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, bus.Subscribers(domain.TopicLookupsChanged))

	_ = bus.Publish(context.Background(), domain.TopicLookupsChanged)
	bus.Wait()
	assert.Equal(t, int32(0), hits.Load())
}

func TestMemoryBus_SlowHandlerDoesNotBlockPublisher(t *testing.T) {
	bus := NewMemoryBus()
	release := make(chan struct{})
	bus.Subscribe(domain.TopicLookupsChanged, func(context.Context) { <-release })

	done := make(chan struct{})
	go func() {
		_ = bus.Publish(context.Background(), domain.TopicLookupsChanged)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on handler")
	}
	close(release)
	bus.Wait()
}

func TestMemoryBus_PanickingHandlerIsContained(t *testing.T) {
	bus := NewMemoryBus()
	var hits atomic.Int32
	bus.Subscribe(domain.TopicLookupsChanged, func(context.Context) { panic("bad handler") })
	bus.Subscribe(domain.TopicLookupsChanged, func(context.Context) { hits.Add(1) })

	_ = bus.Publish(context.Background(), domain.TopicLookupsChanged)
	bus.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestMemoryBus_HandlerContextOutlivesPublisher(t *testing.T) {
	bus := NewMemoryBus()
	errs := make(chan error, 1)
	bus.Subscribe(domain.TopicLookupsChanged, func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	_ = bus.Publish(ctx, domain.TopicLookupsChanged)
	cancel()
	bus.Wait()

	assert.NoError(t, <-errs)
}
