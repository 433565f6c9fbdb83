// Package preview keeps a rendered preview in step with an edited buffer.
//
// Every edit carries a monotonically increasing version. Edits re-arm a
// debounce timer; when the timer elapses the newest version is compiled.
// A compile result is published only if its version is still the newest
// one, so a slow response for an old version can never replace the
// preview of a newer one.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// DefaultDelay is the debounce delay between the last edit and the compile.
const DefaultDelay = 450 * time.Millisecond

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("preview sync closed")

// Compiler renders Typst source. Implementations report compile
// failures inside the result; a returned error means the compile could
// not be performed at all.
type Compiler interface {
	Compile(ctx context.Context, source string) (models.RenderResult, error)
}

// Phase is the state of the preview for the newest version.
type Phase uint8

const (
	Idle Phase = iota
	Pending
	InFlight
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case InFlight:
		return "in-flight"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Status is a snapshot of the sync state.
type Status struct {
	Phase     Phase
	Version   uint64
	RequestID uint64
}

// Stats counts compile requests over the lifetime of a Sync.
type Stats struct {
	Issued    uint64
	Published uint64
	Discarded uint64
}

type request struct {
	id      uint64
	version uint64
	started time.Time
	cancel  context.CancelFunc
}

// Sync debounces edits into compile requests and publishes results.
type Sync struct {
	mu sync.Mutex

	compiler Compiler
	clock    Clock
	delay    time.Duration
	publish  func(models.RenderResult)
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	current  uint64
	source   string
	phase    Phase
	timer    Timer
	inflight *request
	nextID   uint64

	active    models.RenderResult
	hasActive bool
	changed   chan struct{}
	closed    bool
	stats     Stats

	// pubMu orders publisher calls; lastPublished is guarded by it.
	pubMu         sync.Mutex
	lastPublished uint64
}

// Option configures a Sync.
type Option func(*Sync)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(s *Sync) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithPublisher sets the function that receives each accepted result.
// It is called from a compile goroutine, never with internal locks held.
func WithPublisher(fn func(models.RenderResult)) Option {
	return func(s *Sync) {
		s.publish = fn
	}
}

// WithClock replaces the timer source.
func WithClock(c Clock) Option {
	return func(s *Sync) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sync) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Sync that compiles with c.
func New(c Compiler, opts ...Option) *Sync {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sync{
		compiler: c,
		clock:    realClock{},
		delay:    DefaultDelay,
		log:      zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("preview")
	return s
}

// Edit records that the buffer is now at version with the given source
// and re-arms the debounce timer. Versions must increase; an edit with a
// version not newer than the current one is ignored. Any in-flight
// request becomes stale and its result will be dropped.
func (s *Sync) Edit(version uint64, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || version <= s.current {
		return
	}
	s.current = version
	s.source = source
	s.supersedeLocked()
	s.phase = Pending

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(version) })
}

// Flush compiles the pending version now instead of waiting for the
// timer. It reports whether a request was issued.
func (s *Sync) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase != Pending {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.issueLocked()
	return true
}

func (s *Sync) fire(version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A later edit re-armed the timer, or Flush already issued this one.
	if s.closed || version != s.current || s.phase != Pending {
		return
	}
	s.timer = nil
	s.issueLocked()
}

func (s *Sync) supersedeLocked() {
	if s.inflight == nil {
		return
	}
	s.log.Debug("superseding in-flight compile",
		zap.Uint64("request_id", s.inflight.id),
		zap.Uint64("version", s.inflight.version))
	s.inflight.cancel()
	s.inflight = nil
}

func (s *Sync) issueLocked() {
	s.supersedeLocked()
	s.nextID++
	ctx, cancel := context.WithCancel(s.ctx)
	req := &request{
		id:      s.nextID,
		version: s.current,
		started: time.Now(),
		cancel:  cancel,
	}
	s.inflight = req
	s.phase = InFlight
	s.stats.Issued++

	s.log.Debug("compile issued",
		zap.Uint64("request_id", req.id),
		zap.Uint64("version", req.version))
	go s.run(ctx, req, s.source)
}

func (s *Sync) run(ctx context.Context, req *request, source string) {
	result, err := s.compiler.Compile(ctx, source)
	if err != nil {
		result = failureResult(err)
	}
	result.Version = req.version

	s.mu.Lock()
	stale := s.closed || s.inflight != req || req.version != s.current
	if stale {
		s.stats.Discarded++
		s.mu.Unlock()
		req.cancel()
		s.log.Debug("stale compile result discarded",
			zap.Uint64("request_id", req.id),
			zap.Uint64("version", req.version),
			zap.Duration("duration", time.Since(req.started)))
		return
	}
	s.inflight = nil
	s.phase = Settled
	s.active = result
	s.hasActive = true
	s.stats.Published++
	close(s.changed)
	s.changed = make(chan struct{})
	publish := s.publish
	s.mu.Unlock()
	req.cancel()

	if result.OK() {
		s.log.Debug("compile settled",
			zap.Uint64("request_id", req.id),
			zap.Uint64("version", req.version),
			zap.Int("pages", result.Pages),
			zap.Duration("duration", time.Since(req.started)))
	} else {
		s.log.Info("compile failed",
			zap.Uint64("version", req.version),
			zap.String("error", result.Err))
	}

	if publish == nil {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if result.Version <= s.lastPublished {
		return
	}
	s.lastPublished = result.Version
	publish(result)
}

// failureResult turns a transport failure into a displayable result.
func failureResult(err error) models.RenderResult {
	msg := err.Error()
	return models.RenderResult{
		Err: msg,
		HTML: fmt.Sprintf(`<div style="color: #DC2626; padding: 20px;">Failed to compile: %s</div>`,
			html.EscapeString(msg)),
	}
}

// Wait blocks until a result for version (or a newer one) is active.
func (s *Sync) Wait(ctx context.Context, version uint64) (models.RenderResult, error) {
	for {
		s.mu.Lock()
		if s.hasActive && s.active.Version >= version {
			r := s.active
			s.mu.Unlock()
			return r, nil
		}
		if s.closed {
			s.mu.Unlock()
			return models.RenderResult{}, ErrClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return models.RenderResult{}, ctx.Err()
		}
	}
}

// State returns the current phase and version.
func (s *Sync) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Phase: s.phase, Version: s.current}
	if s.inflight != nil {
		st.RequestID = s.inflight.id
	}
	return st
}

// Active returns the displayed result, if any.
func (s *Sync) Active() (models.RenderResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.hasActive
}

// Stats returns request counters.
func (s *Sync) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close stops the timer and cancels outstanding work. Results that
// arrive afterwards are dropped.
func (s *Sync) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.inflight = nil
	s.cancel()
	close(s.changed)
}
