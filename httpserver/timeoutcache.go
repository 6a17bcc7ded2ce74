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
	"container/list"
	"sync"
)

// TimeoutEntry is one (connection-id, expiry) pair as yielded by Iterate, in
// non-decreasing expiresAt order (see TimeoutCache.Renew).
type TimeoutEntry struct {
	ID        int64
	ExpiresAt int64
}

// TimeoutCache is an ordered mapping from connection-id to expiry timestamp.
// Every renewal uses now + connectionTimeout with a non-decreasing now and a
// constant timeout, so insertion order equals non-decreasing expiresAt
// order; the Timeout Sweeper relies on this to scan from the head and stop
// at the first non-expired entry.
type TimeoutCache interface {
	// Renew inserts or moves id to the tail of the order with expiresAt.
	Renew(id int64, expiresAt int64)
	// Clear removes the entry; a no-op if absent.
	Clear(id int64)
	// Iterate returns a snapshot of entries in current (head-to-tail) order.
	Iterate() []TimeoutEntry
	// Len returns the number of tracked entries.
	Len() int
}

type timeoutCache struct {
	mu  sync.Mutex
	ord *list.List
	idx map[int64]*list.Element
}

func newTimeoutCache() *timeoutCache {
	return &timeoutCache{
		ord: list.New(),
		idx: make(map[int64]*list.Element),
	}
}

func (c *timeoutCache) Renew(id int64, expiresAt int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.idx[id]; ok {
		c.ord.Remove(e)
	}

	c.idx[id] = c.ord.PushBack(TimeoutEntry{ID: id, ExpiresAt: expiresAt})
}

func (c *timeoutCache) Clear(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.idx[id]; ok {
		c.ord.Remove(e)
		delete(c.idx, id)
	}
}

func (c *timeoutCache) Iterate() []TimeoutEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TimeoutEntry, 0, c.ord.Len())
	for e := c.ord.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(TimeoutEntry))
	}

	return out
}

func (c *timeoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ord.Len()
}
