package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"parcel-delivery-api/middleware"
	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
)

type UpsertUserRequest struct {
	Email string          `json:"email" binding:"required"`
	Name  string          `json:"name" binding:"required"`
	Photo string          `json:"photo"`
	Role  models.UserRole `json:"role" binding:"omitempty,user_role"`
}

// UpsertUser registers or refreshes a user by email and starts a session
func (h *Handler) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if req.Photo == "" {
		req.Photo = models.DefaultPhoto
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	user, inserted, err := h.store.Users().Upsert(c.Request.Context(), models.UserUpsert{
		Email: req.Email,
		Name:  req.Name,
		Photo: req.Photo,
		Role:  req.Role,
		Now:   h.clock(),
	})
	if err != nil {
		h.log.Error("upsert user", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Database error",
			"error":   err.Error(),
		})
		return
	}

	pair, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error("issue tokens", slog.Any("err", err))
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.setSessionCookies(c, pair)

	if inserted {
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created", "inserted": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated", "inserted": false})
}

// SearchUsers finds up to ten users whose email contains the query
func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.store.Users().Search(c.Request.Context(), c.Query("email"), storage.SearchLimit)
	if err != nil {
		h.storeFailed(c, err, "search users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

type PatchRoleRequest struct {
	Role models.UserRole `json:"role"`
}

// PatchUserRole lets an admin grant or revoke admin rights
func (h *Handler) PatchUserRole(c *gin.Context) {
	var req PatchRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	}

	res, err := h.store.Users().SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.storeFailed(c, err, "set role")
		return
	}
	if res.MatchedCount == 0 {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	caller, _ := middleware.IdentityFrom(c.Request.Context())
	h.log.Info("role changed",
		slog.String("user_id", c.Param("id")),
		slog.String("role", string(req.Role)),
		slog.String("by", caller.Email),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// GetUserRole returns the role stored for an email
func (h *Handler) GetUserRole(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}
	user, err := h.store.Users().GetByEmail(c.Request.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.log.Error("get user role", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server error",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "role": user.Role})
}
