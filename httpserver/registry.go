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

import "sync"

// clientRegistry tracks live connections and enforces the two admission
// caps: a global ceiling and a per-peer ceiling (network-id keyed, loopback
// and Unix-domain peers exempt).
//
// Admission uses a pre-increment-then-compare pattern: the counter is
// incremented first, and the value captured *before* that increment is
// compared against the configured maximum. A connection is rejected when the
// pre-increment value equals max and admitted otherwise, which makes max
// itself the effective concurrent-connection ceiling rather than max-1 or
// max+1. The
// increment is never undone here, admitted or not: the caller always closes
// a Client it obtained, and that Client's close callback is the sole
// balancing release, for both the admitted and the rejected path. Reverting
// the increment here *and* releasing it again from the close callback would
// double-decrement whichever counter the rejection wasn't actually the
// bottleneck for.
type clientRegistry struct {
	mu sync.Mutex

	clients map[int64]*Client

	connCount int64
	perPeer   map[string]int64
}

func newClientRegistry() *clientRegistry {
	return &clientRegistry{
		clients: make(map[int64]*Client),
		perPeer: make(map[string]int64),
	}
}

// admitGlobal attempts to reserve one slot against the global cap. The
// counter is incremented unconditionally, whether or not the slot is
// granted; the caller's Client.Close (via releaseGlobal) is what undoes it,
// on both the admitted and the rejected path.
func (r *clientRegistry) admitGlobal(max int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.connCount
	r.connCount++

	return old != max
}

// admitPeer attempts to reserve one slot against the per-peer cap for key.
// Exempt peers (loopback, Unix-domain) always succeed and are not counted.
// Like admitGlobal, the counter is incremented unconditionally; the caller's
// Client.Close (via releasePeer) is the sole balancing release.
func (r *clientRegistry) admitPeer(key string, max int64, exempt bool) bool {
	if exempt {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.perPeer[key]
	r.perPeer[key] = old + 1

	return old != max
}

// releaseGlobal gives back one slot against the global cap.
func (r *clientRegistry) releaseGlobal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connCount > 0 {
		r.connCount--
	}
}

// releasePeer gives back one slot against key's per-peer cap.
func (r *clientRegistry) releasePeer(key string, exempt bool) {
	if exempt {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.perPeer[key]; ok {
		if n <= 1 {
			delete(r.perPeer, key)
		} else {
			r.perPeer[key] = n - 1
		}
	}
}

func (r *clientRegistry) insert(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID] = c
}

func (r *clientRegistry) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, id)
}

func (r *clientRegistry) get(id int64) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	return c, ok
}

func (r *clientRegistry) count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.clients))
}

// snapshot returns every currently-registered client, for shutdown-time
// close-all.
func (r *clientRegistry) snapshot() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}

	return out
}
