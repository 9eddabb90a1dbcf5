// Package httpkit provides HTTP identity helpers.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextTenantIDKey is the gin context key for the tenant ID.
const ContextTenantIDKey = "tenantID"

// tenantHeader carries the tenant identity resolved by the upstream identity
// provider. Authentication itself is out of scope for this service; the edge
// proxy validates the session and forwards the tenant.
const tenantHeader = "X-Tenant-ID"

// TenantRequired ensures a valid tenant ID header is present and stores it on
// the gin context.
func TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(tenantHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant"})
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid tenant"})
			return
		}

		c.Set(ContextTenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID extracts the tenant ID stored by TenantRequired.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(ContextTenantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := val.(uuid.UUID)
	return tenantID, ok
}
