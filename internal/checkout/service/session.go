package service

import (
	"context"
	"sync"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"go.uber.org/zap"
)

// CartStore persists cart snapshots between process restarts.
type CartStore interface {
	Load(ctx context.Context, key string) (*cart.Cart, error)
	Save(ctx context.Context, key string, c *cart.Cart) error
	Delete(ctx context.Context, key string) error
}

// Session is one shopper's cart and checkout draft.
type Session struct {
	// mu serialises mutate-then-save so snapshots are written in order.
	mu       sync.Mutex
	id       string
	cart     *cart.Cart
	machine  *Machine
	store    CartStore
	lastSeen time.Time
	// holds counts submissions awaiting a payment outcome; a held session is
	// never evicted so the outcome clears the cart the shopper is using.
	holds    int
	log      *zap.Logger
}

func newSession(id string, c *cart.Cart, store CartStore, users auth.Provider, cityMax int, log *zap.Logger) *Session {
	return &Session{
		id:       id,
		cart:     c,
		machine:  NewMachine(c, users, cityMax),
		store:    store,
		lastSeen: time.Now(),
		log:      log,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Cart() *cart.Cart { return s.cart }

func (s *Session) Machine() *Machine { return s.machine }

func (s *Session) Lines() []cart.Line { return s.cart.Lines() }

func (s *Session) Draft() domain.Draft { return s.machine.Draft() }

func (s *Session) SubmitDraft() (domain.Draft, error) { return s.machine.ReadyToSubmit() }

// Complete empties the cart, drops its snapshot and resets the draft.
func (s *Session) Complete(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	s.machine.Reset()
	s.holds = 0
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, s.id); err != nil {
		s.log.Warn("cart snapshot delete failed", zap.String("session_key", s.id), zap.Error(err))
	}
}

// mutate applies fn to the cart and writes the snapshot. A failed write is
// logged; the in-memory cart stays authoritative.
func (s *Session) mutate(ctx context.Context, fn func(c *cart.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.cart)
	s.lastSeen = time.Now()
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.id, s.cart); err != nil {
		s.log.Warn("cart snapshot save failed", zap.String("session_key", s.id), zap.Error(err))
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) hold() {
	s.mu.Lock()
	s.holds++
	s.mu.Unlock()
}

func (s *Session) release() {
	s.mu.Lock()
	if s.holds > 0 {
		s.holds--
	}
	s.mu.Unlock()
}

func (s *Session) evictable(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds == 0 && s.lastSeen.Before(cutoff)
}

// Registry owns the live sessions, rehydrating carts from the store on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    CartStore
	users    auth.Provider
	cityMax  int
	log      *zap.Logger
}

func NewRegistry(store CartStore, users auth.Provider, cityMax int, log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		users:    users,
		cityMax:  cityMax,
		log:      logger.OrNop(log),
	}
}

func (r *Registry) Get(ctx context.Context, key string) (*Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		s.touch()
		return s, nil
	}
	r.mu.Unlock()

	c := cart.NewCart()
	if r.store != nil {
		loaded, err := r.store.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}
	s := newSession(key, c, r.store, r.users, r.cityMax, r.log)
	r.sessions[key] = s
	return s, nil
}

// Evict drops sessions idle since before cutoff, except those awaiting a payment
// outcome. Their carts remain in the store.
func (r *Registry) Evict(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, s := range r.sessions {
		if s.evictable(cutoff) {
			delete(r.sessions, key)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RunEviction evicts sessions idle longer than ttl until ctx is done.
// A non-positive ttl disables eviction.
func (r *Registry) RunEviction(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		r.log.Info("session eviction disabled", zap.Duration("ttl", ttl))
		return
	}
	interval := ttl / 2
	if interval <= 0 {
		interval = ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Evict(time.Now().Add(-ttl)); n > 0 {
				r.log.Debug("evicted idle sessions", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
