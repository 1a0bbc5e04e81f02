package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bizmatters/fil-vote/internal/store"
)

// ErrTooManySessions is returned when the registry is at capacity
var ErrTooManySessions = errors.New("too many active sessions")

// Observer is notified when sessions are opened and closed
type Observer interface {
	SessionOpened(ctx context.Context)
	SessionClosed(ctx context.Context)
}

// Session is one browser's dashboard
type Session struct {
	ID      string
	Store   *store.Store
	Limiter *rate.Limiter

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen is the time of the most recent request for this session
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// RegistryOptions configures a Registry
type RegistryOptions struct {
	NewStore    func() *store.Store
	MaxSessions int
	IdleTimeout time.Duration
	JanitorSpec string
	// RequestsPerMinute limits AI requests per session; 0 disables the limit
	RequestsPerMinute int
	Burst             int
	Observer          Observer
	Logger            *zap.Logger
	Clock             func() time.Time
}

// Registry maps session ids to their stores and evicts idle sessions
type Registry struct {
	opts     RegistryOptions
	logger   *zap.Logger
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	cron     *cron.Cron
}

// NewRegistry creates an empty registry. Call Start to run the idle janitor.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewStore == nil {
		opts.NewStore = func() *store.Store { return store.New(store.Options{}) }
	}
	return &Registry{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// Start schedules idle eviction on the configured cron spec
func (r *Registry) Start() error {
	c := cron.New()
	_, err := c.AddFunc(r.opts.JanitorSpec, func() {
		if n := r.EvictIdle(); n > 0 {
			r.logger.Info("evicted idle sessions", zap.Int("count", n))
		}
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()
	return nil
}

// Get returns a live session and marks it as seen
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		s.touch(r.opts.Clock())
	}
	return s, ok
}

// Create opens a new session with a fresh store
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, store.ErrClosed
	}
	if r.opts.MaxSessions > 0 && len(r.sessions) >= r.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	s := &Session{
		ID:      uuid.NewString(),
		Store:   r.opts.NewStore(),
		Limiter: r.newLimiter(),
	}
	s.touch(r.opts.Clock())
	r.sessions[s.ID] = s

	if r.opts.Observer != nil {
		r.opts.Observer.SessionOpened(ctx)
	}
	r.logger.Debug("session opened", zap.String("session_id", s.ID))
	return s, nil
}

func (r *Registry) newLimiter() *rate.Limiter {
	if r.opts.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.opts.RequestsPerMinute)), r.opts.Burst)
}

// Len is the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions not seen within the idle timeout and returns how
// many were removed.
func (r *Registry) EvictIdle() int {
	cutoff := r.opts.Clock().Add(-r.opts.IdleTimeout)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	r.closeAll(idle)
	return len(idle)
}

// Close stops the janitor and shuts down every session store
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	c := r.cron
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	r.closeAll(all)
}

func (r *Registry) closeAll(sessions []*Session) {
	for _, s := range sessions {
		s.Store.Close()
		if r.opts.Observer != nil {
			r.opts.Observer.SessionClosed(context.Background())
		}
		r.logger.Debug("session closed", zap.String("session_id", s.ID))
	}
}
