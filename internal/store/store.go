package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Gateway is the AI text capability used by the analysis and rewrite effects.
// Implementations never fail: they return a fallback value instead.
type Gateway interface {
	Analyze(ctx context.Context, title, description string) string
	SuggestRewrite(ctx context.Context, description string) string
}

// Options configures a Store
type Options struct {
	Gateway          Gateway
	Logger           *zap.Logger
	WalletDelay      time.Duration
	ProposalLifetime time.Duration
	Clock            func() time.Time
	NewAddress       func() string
}

// Store owns one session's state. A single goroutine applies actions in
// delivery order; effects run on their own goroutines and re-enter through
// the same queue when they complete.
type Store struct {
	gateway          Gateway
	logger           *zap.Logger
	walletDelay      time.Duration
	proposalLifetime time.Duration
	clock            func() time.Time
	newAddress       func() string

	mu     sync.RWMutex
	state  State
	subs   map[int]chan State
	nextID int

	actions  chan envelope
	ctx      context.Context
	cancel   context.CancelFunc
	closing  chan struct{}
	loopDone chan struct{}
	effects  sync.WaitGroup
	once     sync.Once
}

type envelope struct {
	action Action
	reply  chan result
}

type result struct {
	state State
	err   error
}

// New creates a store seeded with the initial proposals and starts its loop
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewAddress == nil {
		opts.NewAddress = RandomAddress
	}
	if opts.WalletDelay < 0 {
		opts.WalletDelay = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		gateway:          opts.Gateway,
		logger:           opts.Logger,
		walletDelay:      opts.WalletDelay,
		proposalLifetime: opts.ProposalLifetime,
		clock:            opts.Clock,
		newAddress:       opts.NewAddress,
		state:            Initial(opts.Clock()),
		subs:             make(map[int]chan State),
		actions:          make(chan envelope),
		ctx:              ctx,
		cancel:           cancel,
		closing:          make(chan struct{}),
		loopDone:         make(chan struct{}),
	}
	go s.loop()
	return s
}

// Dispatch applies a user action and returns the resulting snapshot. Effects
// started by the action complete later and are visible through Subscribe.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	reply := make(chan result, 1)
	select {
	case s.actions <- envelope{action: a, reply: reply}:
	case <-s.closing:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.state, r.err
	case <-s.loopDone:
		return State{}, ErrClosed
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel that receives the current snapshot and then
// every newer one. Slow readers only see the latest snapshot. The channel is
// closed when the store shuts down or the returned cancel func is called.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	select {
	case <-s.closing:
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Await blocks until the state satisfies cond
func (s *Store) Await(ctx context.Context, cond func(State) bool) (State, error) {
	updates, cancel := s.Subscribe()
	defer cancel()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return State{}, ErrClosed
			}
			if cond(st) {
				return st, nil
			}
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

// Close cancels outstanding effects, stops the loop and waits for every
// goroutine the store started.
func (s *Store) Close() {
	s.once.Do(func() {
		s.cancel()

		s.mu.Lock()
		close(s.closing)
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()

		<-s.loopDone
		s.effects.Wait()
	})
}

func (s *Store) loop() {
	defer close(s.loopDone)
	for {
		select {
		case env := <-s.actions:
			st, err := s.apply(env.action)
			if env.reply != nil {
				env.reply <- result{state: st, err: err}
			}
		case <-s.closing:
			return
		}
	}
}

func (s *Store) apply(a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next, effects, err := Reduce(prev, a, Env{
		Now:              s.clock(),
		ProposalLifetime: s.proposalLifetime,
	})
	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("action", a.Name()),
			zap.Error(err),
		)
		return prev, err
	}
	if next.Version == prev.Version {
		return prev, nil
	}

	s.state = next
	for _, ch := range s.subs {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
	s.logger.Debug("action applied",
		zap.String("action", a.Name()),
		zap.Uint64("version", next.Version),
	)

	for _, e := range effects {
		s.effects.Add(1)
		go s.run(e)
	}
	return next, nil
}

func (s *Store) run(e Effect) {
	defer s.effects.Done()

	switch eff := e.(type) {
	case ConnectWalletEffect:
		timer := time.NewTimer(s.walletDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}
		s.post(WalletConnected{Address: s.newAddress()})

	case AnalyzeEffect:
		text := s.gatewayOrNil().Analyze(s.ctx, eff.Title, eff.Description)
		s.post(AnalysisCompleted{ProposalID: eff.ProposalID, Text: text})

	case RewriteEffect:
		text := s.gatewayOrNil().SuggestRewrite(s.ctx, eff.Description)
		s.post(RewriteCompleted{Text: text, Seq: eff.Seq})
	}
}

// post delivers a completion action to the loop unless the store is closing
func (s *Store) post(a Action) {
	select {
	case s.actions <- envelope{action: a}:
	case <-s.closing:
		s.logger.Debug("completion dropped, store closed", zap.String("action", a.Name()))
	}
}

func (s *Store) gatewayOrNil() Gateway {
	if s.gateway == nil {
		return noGateway{}
	}
	return s.gateway
}

// noGateway behaves like a gateway whose remote capability always fails
type noGateway struct{}

func (noGateway) Analyze(context.Context, string, string) string {
	return AnalysisUnavailableText
}

func (noGateway) SuggestRewrite(_ context.Context, description string) string {
	return description
}

// IsValidation reports whether err is a user-input error the caller should
// surface as a notice rather than a fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrWalletNotConnected) ||
		errors.Is(err, ErrDraftIncomplete) ||
		errors.Is(err, ErrEmptyDescription) ||
		errors.Is(err, ErrUnknownView)
}
