package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// DefaultTTL is how long a fetched event list is considered fresh.
const DefaultTTL = 5 * time.Minute

// Phase is the observable state of the feed for consumers.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// Trigger records why a network fetch happened.
type Trigger string

const (
	TriggerLoad  Trigger = "load"
	TriggerRetry Trigger = "retry"
	TriggerCron  Trigger = "cron"
)

// Snapshot is a consistent view of the store at one instant.  RefreshErr
// is set when a background refresh failed while a ready list was kept.
type Snapshot struct {
	Phase      Phase
	Events     []model.Event
	Err        error
	FetchedAt  time.Time
	FromCache  bool
	RefreshErr error
}

// Outcome describes one completed network fetch.
type Outcome struct {
	URL       string
	Trigger   Trigger
	Count     int
	Err       error
	FetchedAt time.Time
	Duration  time.Duration
}

// Notifier is told about every network fetch, successful or not.
type Notifier interface {
	FeedFetched(ctx context.Context, o Outcome)
}

// Source provides raw feed bodies.  *Client is the production source.
type Source interface {
	URL() string
	FetchBody(ctx context.Context) ([]byte, error)
}

// Option configures a Store.
type Option func(*Store)

// WithCache mirrors fetched bodies to a shared cache so that several
// server instances reuse one fetch.
func WithCache(c Cache) Option { return func(s *Store) { s.cache = c } }

// WithNotifier registers a fetch observer.
func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Store caches the event list for ttl and serialises fetches so that only
// one request hits the feed at a time.  The last completed fetch wins.
type Store struct {
	src      Source
	ttl      time.Duration
	cache    Cache
	notifier Notifier
	now      func() time.Time

	fetchMu sync.Mutex

	mu    sync.RWMutex
	state Snapshot
}

// NewStore wraps src with a freshness window of ttl (DefaultTTL when zero).
func NewStore(src Source, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		src:   src,
		ttl:   ttl,
		now:   time.Now,
		state: Snapshot{Phase: PhaseLoading},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// URL is the feed endpoint.
func (s *Store) URL() string { return s.src.URL() }

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration { return s.ttl }

// State returns the current snapshot.
func (s *Store) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Events returns the cached list when it is fresh and fetches otherwise.
func (s *Store) Events(ctx context.Context) ([]model.Event, error) {
	if evs, ok := s.fresh(); ok {
		return evs, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	// another caller may have refreshed while we waited
	if evs, ok := s.fresh(); ok {
		return evs, nil
	}
	if evs, ok := s.loadShared(ctx); ok {
		return evs, nil
	}
	return s.fetch(ctx, TriggerLoad)
}

// Retry fetches from the network regardless of freshness.  It is the
// manual "try again" path.
func (s *Store) Retry(ctx context.Context) ([]model.Event, error) {
	return s.Refresh(ctx, TriggerRetry)
}

// Refresh fetches from the network regardless of freshness, recording
// trigger as the reason.
func (s *Store) Refresh(ctx context.Context, trigger Trigger) ([]model.Event, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetch(ctx, trigger)
}

// Find looks up an event by id in the last fetched list, without fetching.
func (s *Store) Find(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.state.Events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (s *Store) fresh() ([]model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Phase != PhaseReady {
		return nil, false
	}
	if s.now().Sub(s.state.FetchedAt) >= s.ttl {
		return nil, false
	}
	return s.state.Events, true
}

func (s *Store) loadShared(ctx context.Context) ([]model.Event, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, at, ok := s.cache.Load(ctx)
	if !ok || s.now().Sub(at) >= s.ttl {
		return nil, false
	}
	evs, err := Decode(body)
	if err != nil {
		log.Printf("feed: ignoring shared cache entry: %v", err)
		return nil, false
	}
	s.set(Snapshot{Phase: PhaseReady, Events: evs, FetchedAt: at, FromCache: true})
	return evs, true
}

func (s *Store) fetch(ctx context.Context, trigger Trigger) ([]model.Event, error) {
	// readers keep the ready list while it is being replaced
	s.mu.Lock()
	if s.state.Phase != PhaseReady {
		s.state.Phase = PhaseLoading
		s.state.Err = nil
	}
	s.mu.Unlock()

	started := s.now()
	body, err := s.src.FetchBody(ctx)
	var evs []model.Event
	if err == nil {
		evs, err = Decode(body)
	}
	at := s.now()

	out := Outcome{URL: s.src.URL(), Trigger: trigger, Count: len(evs), Err: err, FetchedAt: at, Duration: at.Sub(started)}
	if err != nil {
		log.Printf("feed: %s fetch failed: %v", trigger, err)
		s.mu.Lock()
		if trigger == TriggerCron && s.state.Phase == PhaseReady {
			s.state.RefreshErr = err
		} else {
			s.state.Phase = PhaseError
			s.state.Err = err
		}
		s.mu.Unlock()
		s.notify(ctx, out)
		return nil, err
	}

	s.set(Snapshot{Phase: PhaseReady, Events: evs, FetchedAt: at})
	if s.cache != nil {
		if cerr := s.cache.Save(ctx, body, at); cerr != nil {
			log.Printf("feed: shared cache save failed: %v", cerr)
		}
	}
	log.Printf("feed: %s fetch ok (%d events in %s)", trigger, len(evs), out.Duration)
	s.notify(ctx, out)
	return evs, nil
}

func (s *Store) set(snap Snapshot) {
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
}

func (s *Store) notify(ctx context.Context, o Outcome) {
	if s.notifier != nil {
		s.notifier.FeedFetched(ctx, o)
	}
}
