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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/httpcore/runner/startStop"
)

// TimeReference publishes a coarse monotonic "now" (unix seconds), updated
// roughly once per wall-clock second while the supervisor is STARTED.
// Subscribers register a callback taking now; callbacks run synchronously,
// in subscription order, on every tick. It is itself an Observer: OnStart
// starts the tick, OnStop stops it.
type TimeReference interface {
	// Now returns the most recently published value.
	Now() int64
	// Subscribe registers fct to be called on every tick and returns a
	// token usable with Unsubscribe.
	Subscribe(fct func(now int64)) int64
	// Unsubscribe removes a previously registered callback; a no-op if the
	// token is unknown.
	Unsubscribe(id int64)
}

type timeRef struct {
	now  atomic.Int64
	mu   sync.Mutex
	next int64
	subs map[int64]func(now int64)
	run  startStop.StartStop
}

func newTimeReference() *timeRef {
	t := &timeRef{
		subs: make(map[int64]func(now int64)),
	}
	t.now.Store(time.Now().Unix())
	t.run = startStop.New(t.tick, t.untick)
	return t
}

func (t *timeRef) Now() int64 {
	return t.now.Load()
}

func (t *timeRef) Subscribe(fct func(now int64)) int64 {
	if fct == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	id := t.next
	t.subs[id] = fct

	return id
}

func (t *timeRef) Unsubscribe(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.subs, id)
}

func (t *timeRef) tick(ctx context.Context) error {
	tk := time.NewTicker(time.Second)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tk.C:
			t.publish(now.Unix())
		}
	}
}

func (t *timeRef) untick(_ context.Context) error {
	return nil
}

func (t *timeRef) publish(now int64) {
	t.now.Store(now)

	t.mu.Lock()
	ids := make([]int64, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	cbs := make([]func(now int64), 0, len(ids))
	for _, id := range ids {
		cbs = append(cbs, t.subs[id])
	}
	t.mu.Unlock()

	for _, fct := range cbs {
		fct(now)
	}
}

// OnStart begins the once-per-second tick. The tick keeps running after ctx
// (the startup fan-out's context) is done; only OnStop ends it.
func (t *timeRef) OnStart(ctx context.Context, _ Supervisor) error {
	return t.run.Start(context.WithoutCancel(ctx))
}

// OnStop stops the tick.
func (t *timeRef) OnStop(ctx context.Context, _ Supervisor) error {
	return t.run.Stop(ctx)
}
