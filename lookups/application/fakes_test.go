package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/AzielCF/az-lookups/lookups/domain"
	"github.com/AzielCF/az-lookups/lookups/repository"
)

var errBoom = errors.New("boom")

func rec(s string) domain.Record { return domain.Record(s) }

// fakeSource serves canned catalogs and counts calls. When gate is non-nil
// every fetch blocks until it is closed.
type fakeSource struct {
	lookups, workLocations, countries, categories []domain.Record
	failLookups, failCountries                    bool

	gate    chan struct{}
	started chan struct{}
	once    sync.Once

	lookupCalls, workCalls, countryCalls, categoryCalls atomic.Int32
	workCatalog, categoryCatalog                        atomic.Value
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		lookups: []domain.Record{
			rec(`{"lookupType":"Gender","name":"Female"}`),
			rec(`{"lookupType":"Gender","name":"Male"}`),
			rec(`{"lookupType":"City","name":"Cork"}`),
			rec(`{"lookupType":"Title","name":"Dr"}`),
			rec(`{"lookupType":"Shoe Size","name":"42"}`),
		},
		workLocations: []domain.Record{rec(`{"location":"HQ","branch":"North","region":"Leinster"}`)},
		countries:     []domain.Record{rec(`{"code":"IE"}`), rec(`{"code":"FR"}`)},
		categories:    []domain.Record{rec(`{"name":"Full member"}`)},
		started:       make(chan struct{}),
	}
}

func (f *fakeSource) wait(ctx context.Context) {
	f.once.Do(func() { close(f.started) })
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeSource) FetchLookups(ctx context.Context) ([]domain.Record, error) {
	f.lookupCalls.Add(1)
	f.wait(ctx)
	if f.failLookups {
		return nil, errBoom
	}
	return f.lookups, nil
}

func (f *fakeSource) FetchWorkLocations(ctx context.Context, catalogID string) ([]domain.Record, error) {
	f.workCalls.Add(1)
	f.workCatalog.Store(catalogID)
	f.wait(ctx)
	return f.workLocations, nil
}

func (f *fakeSource) FetchCountries(ctx context.Context) ([]domain.Record, error) {
	f.countryCalls.Add(1)
	f.wait(ctx)
	if f.failCountries {
		return nil, errBoom
	}
	return f.countries, nil
}

func (f *fakeSource) FetchCategories(ctx context.Context, catalogID string) ([]domain.Record, error) {
	f.categoryCalls.Add(1)
	f.categoryCatalog.Store(catalogID)
	f.wait(ctx)
	return f.categories, nil
}

// flakyStore wraps a MemoryStore. Reads of keys in dropWrites report absent
// as long as the counter for that key is positive; each Put decrements it.
type flakyStore struct {
	*repository.MemoryStore

	mu         sync.Mutex
	dropWrites map[string]int
	puts       map[string]int
	failGets   bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore: repository.NewMemoryStore(),
		dropWrites:  make(map[string]int),
		puts:        make(map[string]int),
	}
}

func (s *flakyStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.puts[key]++
	drop := s.dropWrites[key] > 0
	if drop {
		s.dropWrites[key]--
	}
	s.mu.Unlock()
	if drop {
		return nil
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	fail := s.failGets
	s.mu.Unlock()
	if fail {
		return "", false, errBoom
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) putCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

// blockingStore holds every Get until release is closed. reading is closed
// by the first Get.
type blockingStore struct {
	*flakyStore

	once    sync.Once
	reading chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		flakyStore: newFlakyStore(),
		reading:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (s *blockingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.once.Do(func() { close(s.reading) })
	<-s.release
	return s.flakyStore.Get(ctx, key)
}

// recordingBus collects publishes synchronously.
type recordingBus struct {
	mu        sync.Mutex
	published []string
	handlers  []domain.Handler
}

func (b *recordingBus) Publish(ctx context.Context, topic string) error {
	b.mu.Lock()
	b.published = append(b.published, topic)
	hs := append([]domain.Handler(nil), b.handlers...)
	b.mu.Unlock()
	for _, h := range hs {
		h(ctx)
	}
	return nil
}

func (b *recordingBus) Subscribe(topic string, handler domain.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return func() {}
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func authenticated(v bool) domain.Authenticator {
	return domain.AuthenticatorFunc(func(context.Context) bool { return v })
}
