/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type runner struct {
	fnStart FuncStartStop
	fnStop  FuncStartStop

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	gen       uint64

	errMu   sync.Mutex
	errList []error
}

func (r *runner) Start(ctx context.Context) error {
	r.stopCurrent(ctx)

	r.mu.Lock()

	r.errMu.Lock()
	r.errList = nil
	r.errMu.Unlock()

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.gen++
	gen := r.gen
	r.cancel = cancel
	r.done = done
	r.running = true
	r.startedAt = time.Now()

	fnStart := r.fnStart
	r.mu.Unlock()

	go r.run(gen, cctx, done, fnStart)

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}

	r.running = false
	cancel := r.cancel
	done := r.done
	fnStop := r.fnStop
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	r.runStop(ctx, fnStop)

	if done != nil {
		<-done
	}

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if len(r.errList) == 0 {
		return nil
	}
	return r.errList[len(r.errList)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]error, len(r.errList))
	copy(out, r.errList)
	return out
}

// stopCurrent stops any instance already running before a fresh Start
// takes over, so a second Start always supersedes the first instead of
// running concurrently with it.
func (r *runner) stopCurrent(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}

	r.running = false
	cancel := r.cancel
	done := r.done
	fnStop := r.fnStop
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	r.runStop(ctx, fnStop)

	if done != nil {
		<-done
	}
}

func (r *runner) runStop(ctx context.Context, fnStop FuncStartStop) {
	defer func() {
		if rec := recover(); rec != nil {
			r.addError(fmt.Errorf("panic in stop function: %v", rec))
		}
	}()

	if fnStop == nil {
		r.addError(fmt.Errorf("invalid stop function: stop function is nil"))
		return
	}

	if err := fnStop(ctx); err != nil {
		r.addError(err)
	}
}

func (r *runner) run(gen uint64, ctx context.Context, done chan struct{}, fnStart FuncStartStop) {
	defer close(done)

	err := r.runStart(ctx, fnStart)
	if err != nil {
		r.addError(err)
	}

	r.mu.Lock()
	if r.gen == gen {
		r.running = false
		r.startedAt = time.Time{}
		r.cancel = nil
		r.done = nil
	}
	r.mu.Unlock()
}

func (r *runner) runStart(ctx context.Context, fnStart FuncStartStop) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in start function: %v", rec)
		}
	}()

	if fnStart == nil {
		return fmt.Errorf("invalid start function: start function is nil")
	}

	return fnStart(ctx)
}

func (r *runner) addError(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errList = append(r.errList, err)
}
