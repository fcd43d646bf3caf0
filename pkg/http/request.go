package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig decides which upstream proxies may assert a client address via
// forwarding headers. CIDRs that fail to parse are dropped at construction.
type IPConfig struct {
	trusted []*net.IPNet
}

func NewIPConfig(trustedProxies ...string) *IPConfig {
	cfg := &IPConfig{}
	for _, cidr := range trustedProxies {
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			cfg.trusted = append(cfg.trusted, ipNet)
		}
	}
	return cfg
}

func (c *IPConfig) trusts(addr string) bool {
	if c == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address for logging and audit records.
// X-Forwarded-For and X-Real-IP are honored only when the direct peer is a
// trusted proxy, so clients cannot pick their own audit address by setting
// headers.
func ClientIP(r *http.Request, cfg *IPConfig) string {
	peer := peerAddr(r)
	if !cfg.trusts(peer) {
		return peer
	}

	// Leftmost valid X-Forwarded-For entry wins.
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); net.ParseIP(ip) != nil {
		return ip
	}
	return peer
}

func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
