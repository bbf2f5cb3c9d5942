package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/erp/ordercalc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// docsContentSecurityPolicy lets the Swagger UI load its own scripts, styles and images
const docsContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// SwaggerProtection guards the documentation endpoints. Clients outside allowedIPs get 403;
// an empty list allows everyone. Entries are single IPs or CIDR ranges, invalid ones are
// ignored. The strict content security policy set by Secure is relaxed for the docs.
func SwaggerProtection(allowedIPs []string) gin.HandlerFunc {
	var ips []net.IP
	var nets []*net.IPNet
	for _, entry := range allowedIPs {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				nets = append(nets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
		}
	}

	return func(c *gin.Context) {
		if len(allowedIPs) > 0 && !isIPAllowed(net.ParseIP(c.ClientIP()), ips, nets) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"Access to API documentation is restricted",
				GetRequestID(c),
			))
			return
		}

		c.Header("Content-Security-Policy", docsContentSecurityPolicy)
		c.Next()
	}
}

func isIPAllowed(ip net.IP, ips []net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
