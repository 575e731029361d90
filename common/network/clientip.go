// Package network provides client-address helpers for the front gate's
// IP allowlist (spec §4.1). Grounded on the teacher's common/network
// package; this file replaces the teacher's outbound-SSRF URL validator
// (no home in this gateway, see DESIGN.md) with the inbound client-IP
// normalization the spec actually calls for.
package network

import (
	"net"
	"strings"
)

// ClientIP picks the first non-empty candidate, in spec §4.1 order:
// cf-connecting-ip, x-real-ip, the first entry of x-forwarded-for,
// falling back to the socket peer address.
func ClientIP(cfConnectingIP, xRealIP, xForwardedFor, remoteAddr string) string {
	if v := strings.TrimSpace(cfConnectingIP); v != "" {
		return Normalize(v)
	}
	if v := strings.TrimSpace(xRealIP); v != "" {
		return Normalize(v)
	}
	if xForwardedFor != "" {
		first := strings.TrimSpace(strings.SplitN(xForwardedFor, ",", 2)[0])
		if first != "" {
			return Normalize(first)
		}
	}
	return Normalize(remoteAddr)
}

// Normalize strips a bracketed IPv6 port suffix, an IPv4-mapped
// ::ffff: prefix, and an IPv6 zone, then lowercases the result.
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}

	// "[::1]:1234" -> "::1"; "1.2.3.4:1234" -> "1.2.3.4"
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	} else {
		addr = strings.Trim(addr, "[]")
	}

	if zoneIdx := strings.Index(addr, "%"); zoneIdx >= 0 {
		addr = addr[:zoneIdx]
	}

	addr = strings.TrimPrefix(strings.ToLower(addr), "::ffff:")
	return addr
}

// InAllowlist reports whether ip matches the allowlist. An empty or
// nil list, or a single "*" entry, is handled by the caller (spec
// §4.1: "if configured and non-empty and not *").
func InAllowlist(ip string, allowlist []string) bool {
	ip = Normalize(ip)
	for _, candidate := range allowlist {
		if Normalize(candidate) == ip {
			return true
		}
	}
	return false
}
