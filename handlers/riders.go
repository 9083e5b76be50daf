package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/models"
	"parcel-delivery-api/statemachine"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
)

// CreateRider stores a rider application. New riders are always pending.
func (h *Handler) CreateRider(c *gin.Context) {
	var rider models.Rider
	if err := c.ShouldBindJSON(&rider); err != nil {
		bindFailed(c, err)
		return
	}
	if rider.Name == "" || rider.Email == "" || rider.Region == "" {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	rider.ID = ""
	rider.Status = models.RiderPending
	rider.CreatedAt = h.clock()

	if err := h.store.Riders().Create(c.Request.Context(), &rider); err != nil {
		h.storeFailed(c, err, "create rider")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"acknowledged": true, "insertedId": rider.ID})
}

func (h *Handler) listRiders(c *gin.Context, f storage.RiderFilter) {
	riders, err := h.store.Riders().List(c.Request.Context(), f)
	if err != nil {
		h.storeFailed(c, err, "list riders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": riders})
}

// RidersByRegion returns approved riders working in :region
func (h *Handler) RidersByRegion(c *gin.Context) {
	h.listRiders(c, storage.RiderFilter{Status: models.RiderApproved, Region: c.Param("region")})
}

func (h *Handler) PendingRiders(c *gin.Context) {
	h.listRiders(c, storage.RiderFilter{Status: models.RiderPending})
}

func (h *Handler) ActiveRiders(c *gin.Context) {
	h.listRiders(c, storage.RiderFilter{Status: models.RiderApproved})
}

// UpdateRider patches a rider. A status change must follow the rider
// lifecycle; approving also gives the matching user the rider role. The body
// "email" names that user account and is not written to the rider.
func (h *Handler) UpdateRider(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFailed(c, err)
		return
	}
	accountEmail, _ := body[models.RiderEmail].(string)
	delete(body, models.RiderEmail)

	fields, err := models.NormalizeRiderFields(body)
	if err != nil {
		bindFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	rider, err := h.store.Riders().GetByID(ctx, c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "Rider not found")
		return
	}
	if err != nil {
		h.storeFailed(c, err, "get rider")
		return
	}

	match := storage.RiderMatch{ID: rider.ID}
	newStatus, statusChange := fields[models.RiderStatusKey].(models.RiderStatus)
	if statusChange {
		if err := statemachine.Rider.CanTransition(string(rider.Status), string(newStatus)); err != nil {
			illegalTransition(c, statemachine.Rider, string(rider.Status), string(newStatus), err)
			return
		}
		match.ExpectStatus = rider.Status
	}

	riderUpdate, err := h.store.Riders().Update(ctx, match, fields)
	if err != nil {
		h.storeFailed(c, err, "update rider")
		return
	}
	if riderUpdate.MatchedCount == 0 {
		fail(c, http.StatusConflict, "Rider status changed concurrently, reload and retry")
		return
	}

	var roleUpdate *storage.UpdateResult
	if statusChange && newStatus == models.RiderApproved {
		if accountEmail == "" {
			accountEmail = rider.Email
		}
		res, err := h.store.Users().SetRoleByEmail(ctx, accountEmail, models.RoleRider)
		if err != nil {
			h.log.Error("promote rider", slog.String("email", accountEmail), slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		roleUpdate = &res
		h.publish(ctx, messages.ParcelEvent{
			Type:       messages.RiderApproved,
			RiderID:    rider.ID,
			RiderEmail: accountEmail,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "riderUpdate": riderUpdate, "roleUpdate": roleUpdate})
}
