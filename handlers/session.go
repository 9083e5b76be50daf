package handlers

import (
	"log/slog"
	"net/http"

	"parcel-delivery-api/middleware"

	"github.com/gin-gonic/gin"
)

// Logout clears both cookies and revokes the refresh token if it is still live
func (h *Handler) Logout(c *gin.Context) {
	if refresh, err := c.Cookie(middleware.RefreshCookie); err == nil && refresh != "" && h.revoked != nil {
		if claims, err := h.tokens.Verify(refresh, middleware.RefreshToken); err == nil && claims.ExpiresAt != nil {
			ttl := claims.ExpiresAt.Sub(h.now())
			if err := h.revoked.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
				h.log.Warn("revoke refresh token", slog.Any("err", err))
			}
		}
	}

	h.clearCookie(c, middleware.AccessCookie)
	h.clearCookie(c, middleware.RefreshCookie)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// RefreshToken trades a valid refresh cookie for a new access cookie
func (h *Handler) RefreshToken(c *gin.Context) {
	refresh, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	access, claims, err := h.tokens.Refresh(refresh)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid refresh token"})
		return
	}

	if h.revoked != nil {
		revoked, err := h.revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			h.log.Error("check revocation", slog.Any("err", err))
			fail(c, http.StatusInternalServerError, "Server error")
			return
		}
		if revoked {
			c.JSON(http.StatusForbidden, gin.H{"message": "Invalid refresh token"})
			return
		}
	}

	h.setCookie(c, middleware.AccessCookie, access, h.tokens.AccessTTL())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
