package trade

import (
	"context"
	"sync"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cart session defaults
const (
	DefaultCartIdleTimeout   = 2 * time.Hour
	DefaultCartSweepInterval = 5 * time.Minute
)

// ErrCartNotFound is returned for unknown or expired session ids
var ErrCartNotFound = shared.NewNotFoundError("cart session not found")

type cartSession struct {
	mu       sync.Mutex
	cart     *trade.Cart
	lastUsed time.Time
	closed   bool
}

// CartSessions holds one in-progress cart per operator session.
//
// Carts live only in memory. They are discarded on confirmation, on an
// explicit clear, or after sitting idle longer than the idle timeout.
type CartSessions struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*cartSession
	idleTimeout time.Duration
	sweepEvery  time.Duration
	now         func() time.Time
	logger      *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// CartSessionsConfig configures CartSessions
type CartSessionsConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Clock         func() time.Time
}

// NewCartSessions creates an empty session store. Call Start to begin
// sweeping idle carts.
func NewCartSessions(cfg CartSessionsConfig, logger *zap.Logger) *CartSessions {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultCartIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultCartSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartSessions{
		sessions:    make(map[uuid.UUID]*cartSession),
		idleTimeout: cfg.IdleTimeout,
		sweepEvery:  cfg.SweepInterval,
		now:         cfg.Clock,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Start runs the idle sweeper until Stop is called
func (s *CartSessions) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop ends the sweeper and waits for it. Safe to call more than once.
func (s *CartSessions) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CartSessions) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("Discarded idle carts", zap.Int("count", n))
			}
		}
	}
}

// Open creates an empty cart and returns its session id
func (s *CartSessions) Open() uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = &cartSession{cart: trade.NewCart(), lastUsed: s.now()}
	s.mu.Unlock()
	return id
}

// View returns the current state of a cart
func (s *CartSessions) View(id uuid.UUID) (*CartResponse, error) {
	var resp *CartResponse
	err := s.with(id, func(sess *cartSession) error {
		resp = s.response(id, sess)
		return nil
	})
	return resp, err
}

// AddLine appends a line to a cart. The cart is unchanged on error.
func (s *CartSessions) AddLine(id uuid.UUID, code, name string, qty int, cost, price decimal.Decimal) (*CartResponse, error) {
	var resp *CartResponse
	err := s.with(id, func(sess *cartSession) error {
		if _, err := sess.cart.AddLine(code, name, qty, cost, price); err != nil {
			return err
		}
		resp = s.response(id, sess)
		return nil
	})
	return resp, err
}

// RemoveLine drops the line at index
func (s *CartSessions) RemoveLine(id uuid.UUID, index int) (*CartResponse, error) {
	var resp *CartResponse
	err := s.with(id, func(sess *cartSession) error {
		if err := sess.cart.RemoveLine(index); err != nil {
			return err
		}
		resp = s.response(id, sess)
		return nil
	})
	return resp, err
}

// Discard drops a session and its cart
func (s *CartSessions) Discard(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrCartNotFound
	}

	sess.mu.Lock()
	sess.closed = true
	sess.cart.Clear()
	sess.mu.Unlock()
	return nil
}

// Checkout hands a snapshot of the cart lines to fn while holding the
// session. When fn succeeds the session is discarded; when it fails the
// cart is left exactly as it was.
func (s *CartSessions) Checkout(id uuid.UUID, fn func(lines []trade.CartLine) error) error {
	err := s.with(id, func(sess *cartSession) error {
		if err := fn(sess.cart.Lines()); err != nil {
			return err
		}
		sess.cart.Clear()
		sess.closed = true
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Sweep discards carts idle for longer than the idle timeout and returns
// how many were dropped.
func (s *CartSessions) Sweep() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			// in use right now, so not idle
			continue
		}
		if sess.lastUsed.Before(cutoff) {
			sess.closed = true
			delete(s.sessions, id)
			dropped++
		}
		sess.mu.Unlock()
	}
	return dropped
}

// Len returns the number of open carts
func (s *CartSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// with runs fn with the session locked and refreshes its idle timer
func (s *CartSessions) with(id uuid.UUID, fn func(*cartSession) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return ErrCartNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return ErrCartNotFound
	}
	if s.now().Sub(sess.lastUsed) > s.idleTimeout {
		sess.closed = true
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return ErrCartNotFound
	}
	sess.lastUsed = s.now()
	return fn(sess)
}

func (s *CartSessions) response(id uuid.UUID, sess *cartSession) *CartResponse {
	return &CartResponse{
		SessionID: id,
		Lines:     toCartLineResponses(sess.cart.Lines()),
		ItemCount: sess.cart.ItemCount(),
		Total:     sess.cart.Total(),
		Margin:    sess.cart.Margin(),
		ExpiresAt: sess.lastUsed.Add(s.idleTimeout),
	}
}
