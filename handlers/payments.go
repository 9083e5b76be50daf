package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/models"
	"parcel-delivery-api/payments"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
)

type PaymentIntentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreatePaymentIntent asks the processor for an intent of amount dollars
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	minor, err := payments.ToMinorUnits(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.payments == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payments are not configured"})
		return
	}

	secret, err := h.payments.CreateIntent(c.Request.Context(), minor)
	if err != nil {
		h.log.Error("create payment intent", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// CompletePayment flips the parcel to paid once and records the payment with
// a copy of the submitted parcel payload. The flip is conditional so a
// second completion finds nothing to update and records nothing.
func (h *Handler) CompletePayment(c *gin.Context) {
	var payment models.Payment
	if err := c.ShouldBindJSON(&payment); err != nil {
		bindFailed(c, err)
		return
	}
	if payment.TrackingID == "" {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	ctx := c.Request.Context()
	res, err := h.store.Parcels().Update(ctx,
		storage.ParcelMatch{TrackingID: payment.TrackingID, NotPaid: true},
		map[string]any{models.ParcelPaymentStatus: models.PaymentPaid},
	)
	if err != nil {
		h.storeFailed(c, err, "mark parcel paid")
		return
	}
	if res.MatchedCount == 0 {
		fail(c, http.StatusNotFound, "Parcel not found or already paid")
		return
	}

	now := h.clock()
	payment.ID = ""
	payment.PaidAt = now
	payment.CreatedAt = now
	if err := h.store.Payments().Create(ctx, &payment); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			fail(c, http.StatusConflict, "Payment already recorded")
			return
		}
		h.storeFailed(c, err, "record payment")
		return
	}

	amount := payment.Amount
	h.publish(ctx, messages.ParcelEvent{
		Type:       messages.ParcelPaid,
		TrackingID: payment.TrackingID,
		UserEmail:  payment.UserEmail,
		PaymentID:  payment.ID,
		Amount:     &amount,
		OccurredAt: now,
	})
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Payment completed and history saved",
		"paymentId": payment.ID,
	})
}

// ListPayments returns payment history, optionally for ?email=, latest first
func (h *Handler) ListPayments(c *gin.Context) {
	list, err := h.store.Payments().List(c.Request.Context(), storage.PaymentFilter{UserEmail: c.Query("email")})
	if err != nil {
		h.log.Error("list payments", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment history"})
		return
	}
	c.JSON(http.StatusOK, list)
}
