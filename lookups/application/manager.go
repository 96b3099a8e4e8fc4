package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

const (
	refreshGateKey = "lookups:refresh"

	DefaultFreshnessWindow = 5 * time.Second
	DefaultSettleDelay     = 100 * time.Millisecond
)

// Options tunes a Manager. Zero durations disable the corresponding wait.
type Options struct {
	// KeyPrefix namespaces the bucket keys inside the store.
	KeyPrefix string

	WorkLocationCatalog string
	CategoryCatalog     string

	// SettleDelay is waited between an invalidation signal and the reload.
	SettleDelay time.Duration

	// FetchTimeout bounds each remote sub-fetch. Zero means no timeout.
	FetchTimeout time.Duration
}

// Deps are the collaborators of a Manager. Store, Source, Authenticator and
// Bus are required; the rest are built with defaults when nil.
type Deps struct {
	Store         domain.Store
	Source        domain.Source
	Authenticator domain.Authenticator
	Bus           domain.Bus

	Writer     *Writer
	Gate       *Gate[domain.Snapshot]
	Classifier *Classifier
	Freshness  *Freshness
}

// Manager owns the in-memory lookup snapshot and keeps it in sync with the
// remote source and the durable store. None of its operations return errors
// to callers: failures shrink or age the data instead.
type Manager struct {
	store      domain.Store
	source     domain.Source
	auth       domain.Authenticator
	bus        domain.Bus
	writer     *Writer
	gate       *Gate[domain.Snapshot]
	classifier *Classifier
	freshness  *Freshness
	opts       Options

	mu       sync.RWMutex
	snapshot domain.Snapshot

	statusMu      sync.Mutex
	lastLoadErr   error
	lastPersistOK *bool
	lastPersistAt time.Time

	persisting sync.WaitGroup
}

func NewManager(deps Deps, opts Options) *Manager {
	if deps.Writer == nil {
		deps.Writer = NewWriter(deps.Store, DefaultRetryPolicy())
	}
	if deps.Gate == nil {
		deps.Gate = NewGate[domain.Snapshot]()
	}
	if deps.Classifier == nil {
		deps.Classifier = NewClassifier(domain.DefaultDiscriminatorTable(""))
	}
	if deps.Freshness == nil {
		deps.Freshness = NewFreshness(DefaultFreshnessWindow)
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	return &Manager{
		store:      deps.Store,
		source:     deps.Source,
		auth:       deps.Authenticator,
		bus:        deps.Bus,
		writer:     deps.Writer,
		gate:       deps.Gate,
		classifier: deps.Classifier,
		freshness:  deps.Freshness,
		opts:       opts,
		snapshot:   domain.EmptySnapshot(),
	}
}

func (m *Manager) key(kind domain.BucketKind) string {
	return domain.StoreKey(m.opts.KeyPrefix, kind)
}

// Snapshot returns a copy of the current buckets.
func (m *Manager) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// Bucket returns a copy of a single bucket.
func (m *Manager) Bucket(kind domain.BucketKind) domain.Bucket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Bucket(kind).Clone()
}

// Freshness exposes the tracker, mainly for status reporting.
func (m *Manager) Freshness() *Freshness {
	return m.freshness
}

// LoadFromPersistentCache replaces the snapshot with what the store holds.
// Without force it does nothing while the snapshot is fresh, and it keeps the
// current snapshot when every persisted bucket is empty.
func (m *Manager) LoadFromPersistentCache(ctx context.Context, force bool) {
	if !force && m.freshness.IsFresh() {
		logrus.Debug("[LOOKUPS] Snapshot is fresh, skipping persisted load")
		return
	}

	buckets, err := m.readAll(ctx)
	m.recordLoadError(err)
	if err != nil {
		logrus.WithError(err).Warn("[LOOKUPS] Failed to read persisted lookups, using empty buckets")
		buckets = domain.EmptyBuckets()
	}

	hasData := false
	for _, b := range buckets {
		if len(b) > 0 {
			hasData = true
			break
		}
	}
	if !hasData && !force {
		logrus.Debug("[LOOKUPS] No persisted lookups found")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A refresh may have landed while the store was being read.
	if !force && m.freshness.IsFresh() {
		logrus.Debug("[LOOKUPS] Refresh completed during persisted load, keeping remote snapshot")
		return
	}

	origin := domain.OriginDisk
	if !hasData {
		origin = domain.OriginEmpty
	}
	m.snapshot = domain.Snapshot{
		Buckets:   buckets,
		Origin:    origin,
		UpdatedAt: time.Now().UTC(),
	}
	logrus.Debugf("[LOOKUPS] Loaded persisted lookups (force=%v)", force)
}

func (m *Manager) readAll(ctx context.Context) (map[domain.BucketKind]domain.Bucket, error) {
	var mu sync.Mutex
	out := make(map[domain.BucketKind]domain.Bucket, len(domain.AllBuckets))

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range domain.AllBuckets {
		g.Go(func() error {
			value, ok, err := m.store.Get(gctx, m.key(kind))
			if err != nil {
				return fmt.Errorf("read %s: %w", kind, err)
			}
			bucket := domain.Bucket{}
			if ok {
				bucket = domain.ParseBucket(value)
			}
			mu.Lock()
			out[kind] = bucket
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshFromRemote fetches every catalog and replaces the snapshot. Without
// credentials it falls back to LoadFromPersistentCache(false). Concurrent
// callers share one refresh. Individual catalog failures leave that bucket
// empty and do not fail the refresh.
func (m *Manager) RefreshFromRemote(ctx context.Context) domain.Snapshot {
	if m.auth == nil || !m.auth.IsAuthenticated(ctx) {
		logrus.Debug("[LOOKUPS] Not authenticated, falling back to persisted lookups")
		m.LoadFromPersistentCache(ctx, false)
		return m.Snapshot()
	}

	// The shared refresh must not die with whichever caller started it.
	refreshCtx := context.WithoutCancel(ctx)
	snap, err := m.gate.Run(refreshGateKey, func() (domain.Snapshot, error) {
		return m.refresh(refreshCtx), nil
	})
	if err != nil {
		logrus.WithError(err).Error("[LOOKUPS] Refresh failed")
		return m.Snapshot()
	}
	return snap.Clone()
}

func (m *Manager) refresh(ctx context.Context) domain.Snapshot {
	logrus.Info("[LOOKUPS] Refreshing lookups from remote source")

	var (
		lookups, workLocations, countries, categories []domain.Record
		g                                             errgroup.Group
	)
	g.Go(func() error {
		lookups = m.settle(ctx, "lookups", m.source.FetchLookups)
		return nil
	})
	g.Go(func() error {
		workLocations = m.settle(ctx, "work locations", func(ctx context.Context) ([]domain.Record, error) {
			return m.source.FetchWorkLocations(ctx, m.opts.WorkLocationCatalog)
		})
		return nil
	})
	g.Go(func() error {
		countries = m.settle(ctx, "countries", m.source.FetchCountries)
		return nil
	})
	g.Go(func() error {
		categories = m.settle(ctx, "categories", func(ctx context.Context) ([]domain.Record, error) {
			return m.source.FetchCategories(ctx, m.opts.CategoryCatalog)
		})
		return nil
	})
	_ = g.Wait()

	classified := m.classifier.Classify(lookups)
	if classified.Dropped > 0 {
		logrus.Debugf("[LOOKUPS] Dropped %d records with unknown lookup type", classified.Dropped)
	}

	buckets := domain.EmptyBuckets()
	for kind, b := range classified.Buckets {
		buckets[kind] = b
	}
	buckets[domain.BucketWorkLocation] = domain.Bucket(workLocations)
	buckets[domain.BucketCountry] = domain.Bucket(countries)
	buckets[domain.BucketCategory] = domain.Bucket(categories)

	snap := domain.Snapshot{
		Buckets:   buckets,
		Origin:    domain.OriginRemote,
		UpdatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.snapshot = snap
	m.freshness.MarkFresh()
	m.mu.Unlock()

	m.persistInBackground(snap.Clone().Buckets)
	return snap
}

// settle runs one sub-fetch and converts any failure into an empty result.
func (m *Manager) settle(ctx context.Context, name string, fetch func(context.Context) ([]domain.Record, error)) []domain.Record {
	if m.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.FetchTimeout)
		defer cancel()
	}

	records, err := fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warnf("[LOOKUPS] Failed to fetch %s, bucket left empty", name)
		return []domain.Record{}
	}
	if records == nil {
		return []domain.Record{}
	}
	return records
}

func (m *Manager) persistInBackground(buckets map[domain.BucketKind]domain.Bucket) {
	m.persisting.Add(1)
	go func() {
		defer m.persisting.Done()
		ctx := context.Background()

		if !m.PersistAll(ctx, buckets) {
			logrus.Warn("[LOOKUPS] Lookups not fully persisted; in-memory snapshot remains authoritative")
		}
		if m.bus == nil {
			return
		}
		if err := m.bus.Publish(ctx, domain.TopicLookupsChanged); err != nil {
			logrus.WithError(err).Warn("[LOOKUPS] Failed to publish lookup invalidation")
		}
	}()
}

// WaitForPersistence blocks until background persistence started by earlier
// refreshes has settled.
func (m *Manager) WaitForPersistence() {
	m.persisting.Wait()
}

// PersistAll writes every bucket through the writer, then gives keys that
// still failed one more single attempt. Reports whether every key ended up
// verified.
func (m *Manager) PersistAll(ctx context.Context, buckets map[domain.BucketKind]domain.Bucket) bool {
	var (
		mu      sync.Mutex
		results = make(map[domain.BucketKind]bool, len(buckets))
		g       errgroup.Group
	)
	for kind, bucket := range buckets {
		g.Go(func() error {
			ok := m.writer.WriteVerified(ctx, m.key(kind), bucket)
			mu.Lock()
			results[kind] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failed []domain.BucketKind
	for _, kind := range domain.AllBuckets {
		if ok, written := results[kind]; written && !ok {
			failed = append(failed, kind)
		}
	}

	var remaining []domain.BucketKind
	for _, kind := range failed {
		if m.writer.WriteOnce(ctx, m.key(kind), buckets[kind]) {
			logrus.Infof("[LOOKUPS] Persisted %s on manual retry", kind)
			continue
		}
		remaining = append(remaining, kind)
	}

	ok := len(remaining) == 0
	if !ok {
		logrus.Errorf("[LOOKUPS] Failed to persist %d lookup buckets: %v", len(remaining), remaining)
	}
	m.recordPersist(ok)
	return ok
}

// Watch subscribes the manager to invalidation signals: after the settling
// delay it clears freshness and reloads from the store. A remote snapshot whose
// persistence failed is kept, since the store holds older data. The returned
// function unsubscribes.
func (m *Manager) Watch() (unsubscribe func()) {
	if m.bus == nil {
		return func() {}
	}
	return m.bus.Subscribe(domain.TopicLookupsChanged, func(ctx context.Context) {
		if m.holdsUnpersistedRemote() {
			logrus.Debug("[LOOKUPS] Ignoring invalidation, remote snapshot is newer than the store")
			return
		}
		m.freshness.ClearAfter(m.opts.SettleDelay, func() {
			m.LoadFromPersistentCache(ctx, false)
		})
	})
}

// holdsUnpersistedRemote reports whether the snapshot came from the remote and
// the last persistence pass did not verify every bucket.
func (m *Manager) holdsUnpersistedRemote() bool {
	m.mu.RLock()
	origin := m.snapshot.Origin
	m.mu.RUnlock()

	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return origin == domain.OriginRemote && m.lastPersistOK != nil && !*m.lastPersistOK
}

// StartAutoRefresh refreshes every interval until ctx is done. A non-positive
// interval disables it.
func (m *Manager) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logrus.Debug("[LOOKUPS] Running scheduled refresh...")
				m.RefreshFromRemote(ctx)
			}
		}
	}()
}

// Status reports the cache state for observability.
func (m *Manager) Status() domain.Status {
	m.mu.RLock()
	st := domain.Status{
		Fresh:     m.freshness.IsFresh(),
		Origin:    m.snapshot.Origin,
		UpdatedAt: m.snapshot.UpdatedAt,
		Sizes:     m.snapshot.Sizes(),
	}
	m.mu.RUnlock()

	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	if m.lastLoadErr != nil {
		st.LastLoadError = m.lastLoadErr.Error()
	}
	if m.lastPersistOK != nil {
		ok := *m.lastPersistOK
		st.LastPersistOK = &ok
	}
	st.LastPersistAt = m.lastPersistAt
	return st
}

func (m *Manager) recordLoadError(err error) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.lastLoadErr = err
}

func (m *Manager) recordPersist(ok bool) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.lastPersistOK = &ok
	m.lastPersistAt = time.Now().UTC()
}
