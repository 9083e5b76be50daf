package routes

import (
	"log/slog"

	"parcel-delivery-api/handlers"
	"parcel-delivery-api/middleware"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Handler *handlers.Handler
	Auth    *middleware.Auth
	Limiter middleware.Limiter
	Logger  *slog.Logger
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h, auth := d.Handler, d.Auth
	limit := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, scope, d.Logger)
	}

	// ── Public routes ──────────────────────────────────────────────
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/state-machine", h.GetStateMachineInfo)

	// ── Session routes ─────────────────────────────────────────────
	r.POST("/users/upsert", limit("upsert"), h.UpsertUser)
	r.POST("/logout", h.Logout)
	r.POST("/refresh-token", limit("refresh"), h.RefreshToken)

	// ── User routes ────────────────────────────────────────────────
	users := r.Group("/users")
	users.Use(auth.RequireAuth())
	{
		users.GET("/role", h.GetUserRole)
		users.GET("/search", auth.RequireAdmin(), h.SearchUsers)
		users.PATCH("/:id/role", auth.RequireAdmin(), h.PatchUserRole)
	}

	// ── Parcel routes ──────────────────────────────────────────────
	parcels := r.Group("/parcels")
	{
		parcels.GET("", auth.RequireAuth(), h.ListParcels)
		parcels.GET("/pending-paid", auth.RequireAuth(), auth.RequireAdmin(), h.ListPendingPaidParcels)
		parcels.GET("/completed", auth.RequireAuth(), h.RiderCompletedParcels)
		parcels.GET("/rider-assigned", auth.RequireAuth(), h.RiderAssignedParcels)

		parcels.GET("/:tracking_id", h.GetParcel)
		parcels.DELETE("/:tracking_id", h.DeleteParcel)
		parcels.POST("", h.CreateParcel)

		// :id is the tracking id for the plain patch and the parcel _id
		// for the lifecycle actions
		parcels.PATCH("/:id", h.UpdateParcel)
		parcels.PATCH("/:id/complete-delivery", h.CompleteDelivery)
		parcels.PATCH("/:id/assign-rider", h.AssignRider)
	}

	// ── Rider routes ───────────────────────────────────────────────
	riders := r.Group("/riders")
	{
		riders.POST("", h.CreateRider)
		riders.GET("/by-region/:region", h.RidersByRegion)
		riders.GET("/pending", auth.RequireAuth(), h.PendingRiders)
		riders.GET("/active", auth.RequireAuth(), h.ActiveRiders)
		riders.PATCH("/:id", auth.RequireAuth(), h.UpdateRider)
	}

	// ── Payment routes ─────────────────────────────────────────────
	r.POST("/create-payment-intent", h.CreatePaymentIntent)
	r.POST("/payments/complete", h.CompletePayment)
	r.GET("/payments", h.ListPayments)
}
