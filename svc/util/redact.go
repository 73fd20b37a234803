package util

import (
	"net"
)

// RedactToken shortens an owner token for log lines. The full value is a
// bearer credential and never appears in logs.
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "[TOKEN-REDACTED]"
	}
	return token[:8] + "..."
}

// RedactIP truncates an address to its /24 (or /32-for-v6 prefix) before
// logging.
func RedactIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		addr = host
	}
	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "unknown"
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	ipv6 := parsed.To16()
	for i := 4; i < 16; i++ {
		ipv6[i] = 0
	}
	return ipv6.String()
}
