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

import "context"

// Observer is a subsystem that needs to initialize before traffic flows and
// tear down before exit. OnStart may fail and aborts startup; OnStop may
// fail but never aborts shutdown — the first captured failure is surfaced
// after every client has been closed.
//
// Observers are attached only while the supervisor is STOPPED and run
// concurrently within each phase; no ordering between observers is
// guaranteed except that the TimeReference, the driver factory (if it
// implements Observer) and the responder (if it implements Observer) are
// attached first and are therefore present in the first OnStart fan-out.
type Observer interface {
	OnStart(ctx context.Context, sv Supervisor) error
	OnStop(ctx context.Context, sv Supervisor) error
}

// observerRegistry is an ordered, identity-deduplicated set of Observers.
// Membership is by address identity (a *T pointer appearing twice is kept
// once), matching spec.md §9's "membership by identity, not by equality".
type observerRegistry struct {
	order []Observer
	seen  map[Observer]struct{}
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{
		seen: make(map[Observer]struct{}),
	}
}

func (r *observerRegistry) attach(o Observer) {
	if o == nil {
		return
	}
	if _, ok := r.seen[o]; ok {
		return
	}
	r.seen[o] = struct{}{}
	r.order = append(r.order, o)
}

func (r *observerRegistry) list() []Observer {
	out := make([]Observer, len(r.order))
	copy(out, r.order)
	return out
}

func (r *observerRegistry) reset() {
	r.order = nil
	r.seen = make(map[Observer]struct{})
}
