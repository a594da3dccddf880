package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agentmesh/conversation-api/internal/domain/identity"
)

const (
	// TenantIDHeader carries the tenant when a trusted gateway fronts the
	// service instead of end-user JWTs.
	TenantIDHeader      = "X-Tenant-ID"
	ParticipantIDHeader = "X-Participant-ID"
	UserIDHeader        = "X-User-ID"

	// IdentityKey is the gin context key for the resolved identity.
	IdentityKey = "identity"
)

// Identity resolves the caller identity from validated JWT claims, falling
// back to trusted gateway headers. Requests without a resolvable tenant and
// participant are rejected; downstream code never parses credentials.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFromClaims(c)

		if id.TenantID == "" {
			id.TenantID = c.GetHeader(TenantIDHeader)
		}
		if id.ParticipantID == "" {
			id.ParticipantID = c.GetHeader(ParticipantIDHeader)
		}
		if id.UserID == "" {
			id.UserID = c.GetHeader(UserIDHeader)
		}

		if id.TenantID == "" || id.ParticipantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "caller identity could not be resolved",
			})
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// GetIdentity retrieves the resolved identity from the context.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return identity.Identity{}, false
	}
	id, ok := value.(identity.Identity)
	return id, ok
}

func identityFromClaims(c *gin.Context) identity.Identity {
	var id identity.Identity

	tokenValue, exists := c.Get("auth_token")
	if !exists {
		return id
	}
	token, ok := tokenValue.(*jwt.Token)
	if !ok {
		return id
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return id
	}

	if tenant, ok := claims["tenant_id"].(string); ok {
		id.TenantID = tenant
	}
	if participant, ok := claims["participant_id"].(string); ok {
		id.ParticipantID = participant
	}
	if sub, ok := claims["sub"].(string); ok {
		id.UserID = sub
	}
	return id
}
