package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"payportal.backend/internal/interfaces/http/response"
)

const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; block-all-mixed-content"

// SecurityHeaders sets no-store caching and hardening headers on every response
func SecurityHeaders(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		h.Set("Surrogate-Control", "no-store")
		h.Set("X-API-Version", "1.0")
		h.Set("Content-Security-Policy", apiContentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		c.Next()
	}
}

// RequireHTTPS answers 426 to plain-HTTP requests. X-Forwarded-Proto is only
// honoured when the direct peer is one of trustedProxies (IPs or CIDRs).
func RequireHTTPS(enabled bool, trustedProxies []string) gin.HandlerFunc {
	proxies := parseProxyNets(trustedProxies)
	return func(c *gin.Context) {
		if !enabled || c.Request.TLS != nil {
			c.Next()
			return
		}
		if c.GetHeader("X-Forwarded-Proto") == "https" && fromTrustedProxy(c.RemoteIP(), proxies) {
			c.Next()
			return
		}
		response.ErrorWithError(c, http.StatusUpgradeRequired, "HTTPS_REQUIRED", "HTTPS Required")
		c.Abort()
	}
}

func parseProxyNets(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if _, n, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(e)
		if ip == nil {
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

func fromTrustedProxy(remoteIP string, proxies []*net.IPNet) bool {
	ip := net.ParseIP(remoteIP)
	if ip == nil {
		return false
	}
	for _, n := range proxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
