package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/log"
)

// AccessControl decides which clients may use the API.
type AccessControl struct {
	proxies []netip.Prefix
	allowed []netip.Prefix
}

// NewAccessControl compiles the configured lists. Entries that are not an
// address or a CIDR are skipped; config validation reports them.
func NewAccessControl(cfg config.AccessConfig) *AccessControl {
	return &AccessControl{
		proxies: compileNets(cfg.TrustedProxies),
		allowed: compileNets(cfg.AllowedIPs),
	}
}

func compileNets(entries []string) []netip.Prefix {
	var nets []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			if p, err := netip.ParsePrefix(e); err == nil {
				nets = append(nets, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			nets = append(nets, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return nets
}

func inNets(ip string, nets []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, n := range nets {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Allowed reports whether r may proceed and why.
func (a *AccessControl) Allowed(r *http.Request) (bool, string) {
	remote := remoteIP(r)

	if len(a.proxies) == 0 {
		if len(a.allowed) == 0 {
			return true, "no restrictions configured"
		}
		if inNets(remote, a.allowed) {
			return true, "remote address in allowed_ips"
		}
		return false, "remote address " + remote + " not in allowed_ips"
	}

	if !inNets(remote, a.proxies) {
		return false, "request from " + remote + " did not come from a trusted proxy"
	}
	if len(a.allowed) == 0 {
		return true, "trusted proxy and no allowed_ips configured"
	}

	client := ""
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		client = strings.TrimSpace(first)
	}
	if client != "" && inNets(client, a.allowed) {
		return true, "forwarded client in allowed_ips"
	}
	if client == "" {
		client = "<none>"
	}
	return false, "client " + client + " not allowed (proxy " + remote + ")"
}

// Middleware rejects disallowed requests with 403.
func (a *AccessControl) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, reason := a.Allowed(r); !ok {
			log.Warnf("[API] Access denied: %s", reason)
			WriteForbidden(w, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}
