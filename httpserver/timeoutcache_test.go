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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimeoutCache", func() {
	var c *timeoutCache

	BeforeEach(func() {
		c = newTimeoutCache()
	})

	It("iterates in renewal order, not sorted by expiresAt", func() {
		c.Renew(1, 100)
		c.Renew(2, 50)
		c.Renew(3, 200)

		entries := c.Iterate()
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].ID).To(Equal(int64(1)))
		Expect(entries[1].ID).To(Equal(int64(2)))
		Expect(entries[2].ID).To(Equal(int64(3)))
	})

	It("moves a renewed entry to the tail", func() {
		c.Renew(1, 100)
		c.Renew(2, 150)
		c.Renew(1, 300)

		entries := c.Iterate()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].ID).To(Equal(int64(2)))
		Expect(entries[1].ID).To(Equal(int64(1)))
		Expect(entries[1].ExpiresAt).To(Equal(int64(300)))
	})

	It("clear removes the entry and is a no-op when absent", func() {
		c.Renew(1, 100)
		c.Clear(1)
		Expect(c.Len()).To(Equal(0))

		c.Clear(42)
		Expect(c.Len()).To(Equal(0))
	})

	It("reports Len accurately", func() {
		Expect(c.Len()).To(Equal(0))
		c.Renew(1, 10)
		c.Renew(2, 20)
		Expect(c.Len()).To(Equal(2))
		c.Clear(1)
		Expect(c.Len()).To(Equal(1))
	})
})
