package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// thread is the stored state of one conversation.
type thread struct {
	meta      Thread
	turns     []Turn
	updatedAt time.Time
	lastUsed  time.Time
	sem       *semaphore.Weighted // one in-flight turn
}

func (t *thread) info() ThreadInfo {
	return ThreadInfo{Thread: t.meta, UpdatedAt: t.updatedAt, MessageCount: len(t.turns)}
}

type Option func(*MemoryStore)

func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid.NewString for thread ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithIdleTTL makes threads unused for longer than ttl eligible for eviction.
// Zero disables eviction.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) { s.idleTTL = ttl }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *MemoryStore) {
		if l != nil {
			s.logger = l.Named("memory")
		}
	}
}

// MemoryStore is a process-lifetime Store.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*thread
	retired map[string]struct{} // deleted or evicted ids
	now     func() time.Time
	newID   func() string
	idleTTL time.Duration
	logger  *zap.Logger

	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		threads: make(map[string]*thread),
		retired: make(map[string]struct{}),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newThreadLocked registers a thread. Must be called with mu held.
func (s *MemoryStore) newThreadLocked(id, owner string) *thread {
	now := s.now()
	th := &thread{
		meta:      Thread{ID: id, Owner: owner, CreatedAt: now},
		updatedAt: now,
		lastUsed:  now,
		sem:       semaphore.NewWeighted(1),
	}
	s.threads[id] = th
	return th
}

func (s *MemoryStore) CreateThread(_ context.Context, owner string) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.taken(id) {
		id = s.newID()
	}
	th := s.newThreadLocked(id, owner)
	s.logger.Debug("thread created", zap.String("thread_id", id), zap.String("owner", owner))
	return th.meta, nil
}

// taken reports whether id is live or retired. Must be called with mu held.
func (s *MemoryStore) taken(id string) bool {
	if _, ok := s.threads[id]; ok {
		return true
	}
	_, ok := s.retired[id]
	return ok
}

func (s *MemoryStore) EnsureThread(_ context.Context, id, owner string) (Thread, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if th, ok := s.threads[id]; ok {
		th.lastUsed = s.now()
		return th.meta, false, nil
	}
	if _, gone := s.retired[id]; gone {
		return Thread{}, false, errThreadNotFound(id)
	}
	th := s.newThreadLocked(id, owner)
	s.logger.Debug("thread created on first use", zap.String("thread_id", id), zap.String("owner", owner))
	return th.meta, true, nil
}

func (s *MemoryStore) GetThread(_ context.Context, id string) (ThreadInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[id]
	if !ok {
		return ThreadInfo{}, errThreadNotFound(id)
	}
	return th.info(), nil
}

func (s *MemoryStore) GetHistory(_ context.Context, id string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[id]
	if !ok {
		return nil, errThreadNotFound(id)
	}
	out := make([]Turn, len(th.turns))
	for i, t := range th.turns {
		out[i] = t.Clone()
	}
	return out, nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, id string, turn Turn) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return Turn{}, errThreadNotFound(id)
	}

	turn = turn.Clone()
	turn.Seq = len(th.turns) + 1
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	// Keep turns strictly ordered even if the clock stalls or steps back.
	if n := len(th.turns); n > 0 {
		prev := th.turns[n-1].Timestamp
		if !turn.Timestamp.After(prev) {
			turn.Timestamp = prev.Add(time.Nanosecond)
		}
	}

	th.turns = append(th.turns, turn)
	th.updatedAt = turn.Timestamp
	th.lastUsed = s.now()
	return turn.Clone(), nil
}

func (s *MemoryStore) DeleteThread(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; ok {
		delete(s.threads, id)
		s.logger.Debug("thread deleted", zap.String("thread_id", id))
	}
	s.retired[id] = struct{}{}
	return nil
}

func (s *MemoryStore) ListThreads(_ context.Context, owner string) ([]ThreadInfo, error) {
	s.mu.RLock()
	out := make([]ThreadInfo, 0, len(s.threads))
	for _, th := range s.threads {
		if owner != "" && th.meta.Owner != owner {
			continue
		}
		out = append(out, th.info())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	s.mu.RLock()
	th, ok := s.threads[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errThreadNotFound(id)
	}

	if err := th.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	s.mu.Lock()
	th.lastUsed = s.now()
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { th.sem.Release(1) }) }, nil
}

// Len returns the number of live threads.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// EvictIdle retires threads unused for longer than the idle TTL and returns
// how many were evicted. Threads with a turn in flight are skipped.
func (s *MemoryStore) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, th := range s.threads {
		if now.Sub(th.lastUsed) <= s.idleTTL {
			continue
		}
		if !th.sem.TryAcquire(1) {
			continue
		}
		delete(s.threads, id)
		s.retired[id] = struct{}{}
		th.sem.Release(1)
		evicted++
	}
	if evicted > 0 {
		s.logger.Info("evicted idle threads", zap.Int("count", evicted))
	}
	return evicted
}

// StartSweeper runs EvictIdle every interval until Close. It is a no-op when
// no idle TTL is configured or the sweeper is already running.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idleTTL <= 0 || interval <= 0 || s.started || s.closed {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.sweep(interval)
}

func (s *MemoryStore) sweep(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.EvictIdle()
		case <-s.done:
			return
		}
	}
}

// Close stops the sweeper and waits for it to exit. It is safe to call
// multiple times.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	if !s.closed {
		close(s.done)
		s.closed = true
	}
	s.mu.Unlock()
	s.wg.Wait()
}
