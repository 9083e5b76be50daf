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

func (h *Handler) listParcels(c *gin.Context, f storage.ParcelFilter) {
	parcels, err := h.store.Parcels().List(c.Request.Context(), f)
	if err != nil {
		h.log.Error("list parcels", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, parcels)
}

// ListParcels returns all parcels, or those of ?email=, newest first
func (h *Handler) ListParcels(c *gin.Context) {
	h.listParcels(c, storage.ParcelFilter{UserEmail: c.Query("email")})
}

// ListPendingPaidParcels returns paid parcels still waiting for a rider
func (h *Handler) ListPendingPaidParcels(c *gin.Context) {
	h.listParcels(c, storage.ParcelFilter{
		DeliveryStatus: models.DeliveryPending,
		PaymentStatus:  models.PaymentPaid,
	})
}

// RiderCompletedParcels returns a rider's delivered parcels, latest delivery first
func (h *Handler) RiderCompletedParcels(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}
	h.listParcels(c, storage.ParcelFilter{
		AssignedRider:  email,
		DeliveryStatus: models.DeliveryDelivered,
		SortBy:         storage.SortByDeliveredAt,
	})
}

// RiderAssignedParcels returns paid parcels a rider still has to deliver
func (h *Handler) RiderAssignedParcels(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}
	h.listParcels(c, storage.ParcelFilter{
		AssignedRider:  email,
		DeliveryStatus: models.DeliveryAssigned,
		PaymentStatus:  models.PaymentPaid,
	})
}

func (h *Handler) GetParcel(c *gin.Context) {
	parcel, err := h.store.Parcels().GetByTrackingID(c.Request.Context(), c.Param("tracking_id"))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "Parcel not found")
		return
	}
	if err != nil {
		h.storeFailed(c, err, "get parcel")
		return
	}
	c.JSON(http.StatusOK, parcel)
}

func (h *Handler) DeleteParcel(c *gin.Context) {
	n, err := h.store.Parcels().DeleteByTrackingID(c.Request.Context(), c.Param("tracking_id"))
	if err != nil {
		h.storeFailed(c, err, "delete parcel")
		return
	}
	if n == 0 {
		fail(c, http.StatusNotFound, "Parcel not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Parcel deleted"})
}

// UpdateParcel applies an arbitrary field patch to the parcel with the given
// tracking id. payment_status is reserved for payment completion.
func (h *Handler) UpdateParcel(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFailed(c, err)
		return
	}
	fields, err := models.NormalizeParcelFields(body)
	if err != nil {
		bindFailed(c, err)
		return
	}
	if len(fields) == 0 {
		fail(c, http.StatusBadRequest, "No fields to update")
		return
	}

	res, err := h.store.Parcels().Update(c.Request.Context(), storage.ParcelMatch{TrackingID: c.Param("id")}, fields)
	if err != nil {
		h.storeFailed(c, err, "update parcel")
		return
	}
	if res.MatchedCount == 0 {
		fail(c, http.StatusNotFound, "Parcel not found or no change made")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Parcel updated"})
}

type AssignRiderRequest struct {
	RiderEmail string `json:"riderEmail" binding:"required"`
}

// AssignRider moves a parcel to assigned for the given rider
func (h *Handler) AssignRider(c *gin.Context) {
	var req AssignRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	parcel, ok := h.transition(c, models.DeliveryAssigned, map[string]any{
		models.ParcelAssignedRider:  req.RiderEmail,
		models.ParcelDeliveryStatus: models.DeliveryAssigned,
	})
	if !ok {
		return
	}
	h.publish(c.Request.Context(), messages.ParcelEvent{
		Type:       messages.ParcelAssigned,
		ParcelID:   parcel.ID,
		TrackingID: parcel.TrackingID,
		UserEmail:  parcel.UserEmail,
		RiderEmail: req.RiderEmail,
	})
}

// CompleteDelivery marks an assigned parcel delivered now
func (h *Handler) CompleteDelivery(c *gin.Context) {
	parcel, ok := h.transition(c, models.DeliveryDelivered, map[string]any{
		models.ParcelDeliveryStatus: models.DeliveryDelivered,
		models.ParcelDeliveredAt:    h.clock(),
	})
	if !ok {
		return
	}
	rider := ""
	if parcel.AssignedRider != nil {
		rider = *parcel.AssignedRider
	}
	h.publish(c.Request.Context(), messages.ParcelEvent{
		Type:       messages.ParcelDelivered,
		ParcelID:   parcel.ID,
		TrackingID: parcel.TrackingID,
		UserEmail:  parcel.UserEmail,
		RiderEmail: rider,
	})
}

// transition loads the parcel by :id, checks the delivery lifecycle and writes
// fields only if the status is still the one that was checked.
func (h *Handler) transition(c *gin.Context, to models.DeliveryStatus, fields map[string]any) (*models.Parcel, bool) {
	ctx := c.Request.Context()
	parcel, err := h.store.Parcels().GetByID(ctx, c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "Parcel not found")
		return nil, false
	}
	if err != nil {
		h.storeFailed(c, err, "get parcel")
		return nil, false
	}

	from := parcel.DeliveryStatus
	if err := statemachine.Delivery.CanTransition(string(from), string(to)); err != nil {
		illegalTransition(c, statemachine.Delivery, string(from), string(to), err)
		return nil, false
	}

	res, err := h.store.Parcels().Update(ctx, storage.ParcelMatch{ID: parcel.ID, DeliveryStatus: from}, fields)
	if err != nil {
		h.storeFailed(c, err, "update parcel")
		return nil, false
	}
	if res.MatchedCount == 0 {
		fail(c, http.StatusConflict, "Parcel status changed concurrently, reload and retry")
		return nil, false
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
	return parcel, true
}

// CreateParcel stores a new parcel. It always starts pending and unpaid.
func (h *Handler) CreateParcel(c *gin.Context) {
	var parcel models.Parcel
	if err := c.ShouldBindJSON(&parcel); err != nil {
		bindFailed(c, err)
		return
	}
	if parcel.TrackingID == "" {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	parcel.ID = ""
	parcel.DeliveryStatus = models.DeliveryPending
	parcel.PaymentStatus = models.PaymentUnpaid
	parcel.AssignedRider = nil
	parcel.DeliveredAt = nil
	if parcel.CreationDate.IsZero() {
		parcel.CreationDate = h.clock()
	}

	if err := h.store.Parcels().Create(c.Request.Context(), &parcel); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			fail(c, http.StatusConflict, "A parcel with this tracking_id already exists")
			return
		}
		h.storeFailed(c, err, "create parcel")
		return
	}

	h.publish(c.Request.Context(), messages.ParcelEvent{
		Type:       messages.ParcelCreated,
		ParcelID:   parcel.ID,
		TrackingID: parcel.TrackingID,
		UserEmail:  parcel.UserEmail,
	})
	c.JSON(http.StatusCreated, gin.H{"acknowledged": true, "insertedId": parcel.ID})
}
