package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const identityKey = "identity"

// SessionResolver looks up the owner of a session cookie
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// TokenResolver verifies a bearer token and checks it was not revoked
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// Identify resolves the requester from either a bearer token or the session
// cookie and stores the result in the context. It never rejects a request for
// being anonymous; RequireIdentity does that. A well-formed Authorization
// header takes precedence over the cookie.
func Identify(sessions SessionResolver, tokens TokenResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.Anonymous

		if bearer, ok := bearerToken(c.GetHeader("Authorization")); ok {
			resolved, err := tokens.Resolve(c.Request.Context(), bearer)
			if err != nil {
				log.WithError(err).Error("Failed to resolve bearer token")
				respondWithError(c, http.StatusInternalServerError, models.CodeInternalServer, "could not resolve token")
				return
			}
			identity = resolved
		} else if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			resolved, err := sessions.Resolve(c.Request.Context(), cookie)
			if err != nil {
				log.WithError(err).Error("Failed to resolve session")
				respondWithError(c, http.StatusInternalServerError, models.CodeInternalServer, "could not resolve session")
				return
			}
			identity = resolved
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests with 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c).IsAnonymous() {
			respondWithError(c, http.StatusUnauthorized, models.CodeUnauthorized,
				"Authentication required. Log in or send a Bearer token.")
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by Identify, or Anonymous
func CurrentIdentity(c *gin.Context) auth.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return auth.Anonymous
	}
	identity, ok := value.(auth.Identity)
	if !ok {
		return auth.Anonymous
	}
	return identity
}

// SetIdentity stores identity on the context. Used by tests and by handlers
// that establish a session mid-request.
func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}

// bearerToken extracts the token from an RFC 6750 Authorization header
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func respondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.NewAPIError(code, message))
}
