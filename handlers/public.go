package handlers

import (
	"context"
	"net/http"
	"time"

	"parcel-delivery-api/models"
	"parcel-delivery-api/statemachine"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Parcel Delivery Server Running.")
}

// Health reports whether the store answers a ping
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Parcel Delivery API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo documents the parcel and rider lifecycles
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"delivery_status": gin.H{
			"transitions":     statemachine.Delivery.GetAllTransitions(),
			"initial_state":   models.DeliveryPending,
			"terminal_states": []models.DeliveryStatus{models.DeliveryDelivered},
		},
		"rider_status": gin.H{
			"transitions":   statemachine.Rider.GetAllTransitions(),
			"initial_state": models.RiderPending,
		},
		"payment_status": gin.H{
			"values": []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPaid},
			"note":   "set to paid only by POST /payments/complete",
		},
		"description": "Parcel delivery lifecycle state machines",
	})
}
