package middleware

import (
	"context"
	"errors"
	"net/http"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
)

// Cookie names shared with the session handlers
const (
	AccessCookie  = "token"
	RefreshCookie = "refresh_token"
)

// Identity is the verified caller, taken from the access token claims
type Identity struct {
	UserID string
	Role   models.UserRole
	Email  string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserLookup is the part of the user store the role gate needs
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Auth struct {
	tokens *TokenService
	users  UserLookup
}

func NewAuth(tokens *TokenService, users UserLookup) *Auth {
	return &Auth{tokens: tokens, users: users}
}

func deny(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// RequireAuth validates the access cookie and puts the caller's identity
// into the request context
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(AccessCookie)
		if err != nil || tokenStr == "" {
			deny(c, http.StatusUnauthorized, "Unauthorized: No token")
			return
		}
		claims, err := a.tokens.Verify(tokenStr, AccessToken)
		switch {
		case errors.Is(err, ErrTokenExpired):
			deny(c, http.StatusUnauthorized, "Token Expired")
			return
		case err != nil:
			deny(c, http.StatusForbidden, "Forbidden: Invalid token")
			return
		}
		ctx := WithIdentity(c.Request.Context(), Identity{
			UserID: claims.UserID,
			Role:   claims.Role,
			Email:  claims.Email,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole re-reads the caller from the store and enforces that their
// current role is one of roles. The token's role claim is not trusted here.
func (a *Auth) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c.Request.Context())
		if !ok || id.UserID == "" {
			deny(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := a.users.GetByID(c.Request.Context(), id.UserID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error",
				"error":   err.Error(),
			})
			return
		}
		if user != nil {
			for _, r := range roles {
				if user.Role == r {
					c.Next()
					return
				}
			}
		}
		deny(c, http.StatusForbidden, forbiddenMessage(roles))
	}
}

func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return a.RequireRole(models.RoleAdmin)
}

func forbiddenMessage(roles []models.UserRole) string {
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		return "Forbidden: Admins only"
	}
	return "Access denied. Required role(s): " + rolesString(roles)
}

func rolesString(roles []models.UserRole) string {
	s := ""
	for i, r := range roles {
		if i > 0 {
			s += ", "
		}
		s += string(r)
	}
	return s
}
