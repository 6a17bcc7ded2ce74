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

import "net"

// unixNetworkID is the network-id assigned to Unix-domain peers.
const unixNetworkID = "unix"

// networkID computes the admission-control grouping key for a peer address:
// "unix" for AF_UNIX, the IPv4 address for AF_INET, and the first 56 bits of
// an IPv6 address (textualized) for AF_INET6.
func networkID(addr net.Addr) string {
	if addr == nil {
		return unixNetworkID
	}

	if _, ok := addr.(*net.UnixAddr); ok {
		return unixNetworkID
	}

	ip := hostIP(addr)
	if ip == nil {
		return unixNetworkID
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}

	v6 := ip.To16()
	if v6 == nil {
		return ip.String()
	}

	prefix := make(net.IP, net.IPv6len)
	copy(prefix, v6[:7])
	return prefix.String()
}

func hostIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return net.ParseIP(addr.String())
		}
		return net.ParseIP(host)
	}
}

// isLoopback reports whether addr is exempt from per-peer admission caps:
// IPv4 127.0.0.0/8, IPv6 ::1/128, or IPv4-mapped ::ffff:127.0.0.0/104.
func isLoopback(addr net.Addr) bool {
	if _, ok := addr.(*net.UnixAddr); ok {
		return false
	}

	ip := hostIP(addr)
	if ip == nil {
		return false
	}

	return ip.IsLoopback()
}

// isUnix reports whether addr identifies a Unix-domain socket peer.
func isUnix(addr net.Addr) bool {
	_, ok := addr.(*net.UnixAddr)
	return ok
}
