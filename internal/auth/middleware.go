package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "auth.identity"

// Identity is the resolved requester attached to every request
type Identity struct {
	UserID          string `json:"user_id"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
}

// Claims are the JWT claims issued by the session service
type Claims struct {
	IsPlatformAdmin bool `json:"isPlatformAdmin"`
	jwt.RegisteredClaims
}

// Middleware resolves the requester identity from a bearer token or the
// session cookie. Token issuance itself lives in the session service.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(identityKey, Identity{
			UserID:          claims.Subject,
			IsPlatformAdmin: claims.IsPlatformAdmin,
		})
		c.Next()
	}
}

// FromContext returns the identity set by Middleware
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// WithIdentity injects an identity directly, used by tests
func WithIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}

func extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], nil
		}
	}
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errors.New("no token provided")
}
