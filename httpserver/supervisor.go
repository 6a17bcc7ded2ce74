/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package httpserver

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	liblog "github.com/nabbar/httpcore/logger"
	loglvl "github.com/nabbar/httpcore/logger/level"
)

// Supervisor is the public contract of the server lifecycle core: the
// state machine, observer registry, and accessors described in spec.md §4.1
// and §6.
type Supervisor interface {
	// AttachObserver adds an observer. Fails with ErrorInvalidState if the
	// supervisor is not STOPPED.
	AttachObserver(o Observer) error

	// SetDriverFactory replaces the driver factory. Fails with
	// ErrorInvalidState if the supervisor is not STOPPED.
	SetDriverFactory(f HttpDriverFactory) error

	// SetErrorHandler replaces the error handler. Fails with
	// ErrorInvalidState if the supervisor is not STOPPED.
	SetErrorHandler(h ErrorHandler) error

	// SetResponder replaces the responder. Fails with ErrorInvalidState if
	// the supervisor is not STOPPED.
	SetResponder(r Responder) error

	// AddListener registers a bound listener. Fails with ErrorInvalidState
	// if the supervisor is not STOPPED.
	AddListener(bl *BoundListener) error

	// Start begins startup; see spec.md §4.1.
	Start(ctx context.Context) error

	// Stop begins shutdown, bounded by Options.ShutdownTimeout; see
	// spec.md §4.1 and §5.
	Stop(ctx context.Context) error

	GetState() State
	GetOptions() *Options
	GetErrorHandler() ErrorHandler
	GetTimeReference() TimeReference
	GetLogger() liblog.FuncLog
}

type supervisor struct {
	mu sync.Mutex

	state State
	opts  *Options

	observers *observerRegistry
	registry  *clientRegistry
	timeouts  *timeoutCache
	timeref   *timeRef
	sweeper   *timeoutSweeper

	driverFactory HttpDriverFactory
	errHandler    ErrorHandler
	responder     Responder

	listeners  []*BoundListener
	acceptors  []*acceptor
	sweeperSub int64

	connSeq atomic.Int64

	runC   context.Context
	runCnl context.CancelFunc

	log liblog.FuncLog
}

// New builds a Supervisor in the STOPPED state with the given Options and
// an optional logger factory (nil disables logging). logFn is the
// teacher's own liblog.FuncLog shape (func() liblog.Logger), matching how
// the rest of this module's kept logger package is consumed elsewhere.
func New(opts *Options, logFn liblog.FuncLog) (Supervisor, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sv := &supervisor{
		state:      StateStopped,
		opts:       opts.Clone(),
		observers:  newObserverRegistry(),
		registry:   newClientRegistry(),
		timeouts:   newTimeoutCache(),
		timeref:    newTimeReference(),
		errHandler: newDefaultErrorHandler(),
		log:        logFn,
	}
	sv.sweeper = &timeoutSweeper{sv: sv}

	return sv, nil
}

func (s *supervisor) nextConnID() int64 {
	return s.connSeq.Add(1)
}

func (s *supervisor) runCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runC == nil {
		return context.Background()
	}

	return s.runC
}

func (s *supervisor) logDebug(msg string, c *Client) {
	s.logLevel(loglvl.DebugLevel, msg, c)
}

// logLevel emits one entry through the injected liblog.FuncLog, grounded on
// the kept logger package's fluent Logger.Entry/Entry.FieldAdd/Entry.Log
// API. A nil FuncLog, or one returning a nil Logger, silences logging.
func (s *supervisor) logLevel(lvl loglvl.Level, msg string, c *Client) {
	if s.log == nil {
		return
	}

	lg := s.log()
	if lg == nil {
		return
	}

	e := lg.Entry(lvl, msg)
	if c != nil {
		e = e.FieldAdd("connection_id", c.ID).FieldAdd("network_id", c.NetworkID)
	}

	e.Log()
}

func (s *supervisor) AttachObserver(o Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrorInvalidState.Error(nil)
	}

	s.observers.attach(o)
	return nil
}

func (s *supervisor) SetDriverFactory(f HttpDriverFactory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrorInvalidState.Error(nil)
	}

	s.driverFactory = f
	return nil
}

func (s *supervisor) SetErrorHandler(h ErrorHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrorInvalidState.Error(nil)
	}

	s.errHandler = h
	return nil
}

func (s *supervisor) SetResponder(r Responder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrorInvalidState.Error(nil)
	}

	s.responder = r
	return nil
}

func (s *supervisor) AddListener(bl *BoundListener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrorInvalidState.Error(nil)
	}

	s.listeners = append(s.listeners, bl)
	return nil
}

func (s *supervisor) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *supervisor) GetOptions() *Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Clone()
}

func (s *supervisor) GetErrorHandler() ErrorHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errHandler
}

func (s *supervisor) GetTimeReference() TimeReference {
	return s.timeref
}

func (s *supervisor) GetLogger() liblog.FuncLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Start implements spec.md §4.1's startup sequence.
func (s *supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}

	// Step 1: TimeReference, driver factory (if observer), responder (if
	// observer) are attached first, ahead of anything AttachObserver added.
	head := newObserverRegistry()
	head.attach(s.timeref)
	if of, ok := s.driverFactory.(Observer); ok {
		head.attach(of)
	}
	if or, ok := s.responder.(Observer); ok {
		head.attach(or)
	}
	for _, o := range s.observers.list() {
		head.attach(o)
	}
	all := head.list()

	if s.driverFactory == nil {
		var h http.Handler
		if s.responder != nil {
			h = responderAdapter{s.responder}
		}
		s.driverFactory = newDefaultDriverFactory(h, s.opts.HTTPTuning, s.errHandler)
	}

	s.state = StateStarting
	s.mu.Unlock()

	grp, gctx := errgroup.WithContext(ctx)
	for _, o := range all {
		o := o
		grp.Go(func() error {
			return o.OnStart(gctx, s)
		})
	}

	if err := grp.Wait(); err != nil {
		_ = s.stopLocked(context.Background())
		return ErrorStartupError.Error(err)
	}

	s.mu.Lock()
	s.state = StateStarted
	s.runC, s.runCnl = context.WithCancel(context.Background())
	s.mu.Unlock()

	// Step 6: ALPN.
	protos := s.driverFactory.GetApplicationLayerProtocols()
	for _, bl := range s.listeners {
		bl.applyALPN("", protos)
	}

	// Timeout sweeper subscribes to the already-started TimeReference.
	s.sweeperSub = s.timeref.Subscribe(s.sweeper.onTick)

	// Step 7: accept watchers.
	s.mu.Lock()
	s.acceptors = s.acceptors[:0]
	for _, bl := range s.listeners {
		a := newAcceptor(s, bl)
		s.acceptors = append(s.acceptors, a)
		go a.run()
	}
	s.mu.Unlock()

	return nil
}

// Stop implements spec.md §4.1's shutdown sequence, bounded by
// Options.ShutdownTimeout.
func (s *supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return nil
	case StateStarting, StateStopping:
		s.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	s.mu.Unlock()

	deadline := s.opts.ShutdownTimeout
	cctx, cnl := context.WithTimeout(ctx, deadline)
	defer cnl()

	done := make(chan error, 1)
	go func() {
		done <- s.stopLocked(context.Background())
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		return ErrorTimeoutError.Error(nil)
	}
}

// stopLocked runs the full shutdown sequence unconditionally; it is used
// both by Stop and by Start's compensating-shutdown-on-failure path.
func (s *supervisor) stopLocked(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateStopping
	acceptors := s.acceptors
	s.acceptors = nil
	listeners := s.listeners
	// The listener map is cleared here, not just the acceptor list: the
	// sockets below are closed and cannot be re-accepted from, so a
	// subsequent Start must not iterate these same *BoundListener entries.
	// AddListener is STOPPED-gated, so callers re-register fresh (or
	// freshly re-bound) listeners before starting again.
	s.listeners = nil
	if s.runCnl != nil {
		s.runCnl()
	}
	s.mu.Unlock()

	for _, a := range acceptors {
		a.stop()
	}
	for _, bl := range listeners {
		_ = bl.Listener.Close()
	}

	s.timeref.Unsubscribe(s.sweeperSub)

	head := newObserverRegistry()
	head.attach(s.timeref)
	if of, ok := s.driverFactory.(Observer); ok {
		head.attach(of)
	}
	if or, ok := s.responder.(Observer); ok {
		head.attach(or)
	}
	for _, o := range s.observers.list() {
		head.attach(o)
	}

	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, o := range head.list() {
		o := o
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := o.OnStop(ctx, s); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, c := range s.registry.snapshot() {
		_ = c.Close()
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	if firstErr != nil {
		return ErrorShutdownError.Error(firstErr)
	}

	return nil
}

// responderAdapter adapts a Responder to http.Handler for the default
// driver factory. A nil Responder falls through to recoveringHandler's
// no-responder branch, which reports a clear error instead of panicking.
type responderAdapter struct {
	r Responder
}

func (a responderAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.r == nil {
		return
	}
	a.r.ServeHTTP(w, r)
}
