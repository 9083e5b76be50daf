package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateParcel(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/parcels", map[string]any{
		"tracking_id":     "T1",
		"user_email":      "a@x.io",
		"receiver_name":   "Bob",
		"cost":            120,
		"payment_status":  "paid",
		"delivery_status": "delivered",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["acknowledged"])
	assert.NotEmpty(t, body["insertedId"])

	w = e.do(http.MethodGet, "/parcels/T1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "pending", got["delivery_status"])
	assert.Equal(t, "unpaid", got["payment_status"])
	assert.Equal(t, "Bob", got["receiver_name"])
	assert.Equal(t, 120.0, got["cost"])
	assert.Nil(t, got["assigned_rider"])
	assert.NotEmpty(t, got["creation_date"])

	w = e.do(http.MethodPost, "/parcels", map[string]any{"tracking_id": "T1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/parcels", map[string]any{"user_email": "a@x.io"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{messages.ParcelCreated}, e.events.types())
}

func TestListParcels_OrderAndOwnerFilter(t *testing.T) {
	e := newEnv(t)
	cookies := e.login("a@x.io", models.RoleUser)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.seedParcel("T1", "a@x.io", base)
	e.seedParcel("T2", "b@x.io", base.Add(time.Hour))
	e.seedParcel("T3", "a@x.io", base.Add(2*time.Hour))

	w := e.do(http.MethodGet, "/parcels", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/parcels?email=a@x.io", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Parcel](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "T3", list[0].TrackingID)
	assert.Equal(t, "T1", list[1].TrackingID)

	w = e.do(http.MethodGet, "/parcels", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]models.Parcel](t, w)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreationDate.After(all[i-1].CreationDate))
	}
}

func TestGetAndDeleteParcel(t *testing.T) {
	e := newEnv(t)
	e.seedParcel("T1", "a@x.io", time.Now().UTC())

	w := e.do(http.MethodGet, "/parcels/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodDelete, "/parcels/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Parcel not found", decode[map[string]any](t, w)["message"])

	w = e.do(http.MethodDelete, "/parcels/T1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Parcel deleted", decode[map[string]any](t, w)["message"])

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/parcels/T1", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/parcels/T1", nil).Code)
}

func TestUpdateParcel(t *testing.T) {
	e := newEnv(t)
	e.seedParcel("T1", "a@x.io", time.Now().UTC())
	e.seedParcel("T2", "a@x.io", time.Now().UTC())

	w := e.do(http.MethodPatch, "/parcels/T1", map[string]any{"note": "leave at door", "receiver_phone": "555"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p, err := e.store.Parcels().GetByTrackingID(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "leave at door", p.Details["note"])

	w = e.do(http.MethodPatch, "/parcels/T1", map[string]any{"payment_status": "paid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/parcels/T1", map[string]any{"delivery_status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/parcels/T1", map[string]any{"tracking_id": "T2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPatch, "/parcels/NOPE", map[string]any{"note": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPatch, "/parcels/T1", map[string]any{"_id": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeliveryLifecycle(t *testing.T) {
	e := newEnv(t)
	rider := e.login("rider@x.io", models.RoleRider)
	admin := e.login("boss@x.io", models.RoleAdmin)
	p := e.seedParcel("T1", "a@x.io", time.Now().UTC())

	// cannot deliver before assignment
	w := e.do(http.MethodPatch, "/parcels/"+p.ID+"/complete-delivery", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "pending", body["current_status"])
	assert.Equal(t, []any{"assigned"}, body["valid_next_states"])

	w = e.do(http.MethodPatch, "/parcels/"+p.ID+"/assign-rider", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/parcels/missing/assign-rider", map[string]any{"riderEmail": "rider@x.io"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// unpaid parcels do not show up for admins or riders
	w = e.do(http.MethodGet, "/parcels/pending-paid", nil, admin...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Parcel](t, w))

	_, err := e.store.Parcels().Update(context.Background(), storage.ParcelMatch{TrackingID: "T1", NotPaid: true},
		map[string]any{models.ParcelPaymentStatus: models.PaymentPaid})
	require.NoError(t, err)

	w = e.do(http.MethodGet, "/parcels/pending-paid", nil, rider...)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, "/parcels/pending-paid", nil, admin...)
	require.Len(t, decode[[]models.Parcel](t, w), 1)

	w = e.do(http.MethodPatch, "/parcels/"+p.ID+"/assign-rider", map[string]any{"riderEmail": "rider@x.io"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/parcels/rider-assigned?email=rider@x.io", nil, rider...)
	require.Equal(t, http.StatusOK, w.Code)
	assigned := decode[[]models.Parcel](t, w)
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0].AssignedRider)
	assert.Equal(t, "rider@x.io", *assigned[0].AssignedRider)

	w = e.do(http.MethodGet, "/parcels/rider-assigned", nil, rider...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/parcels/"+p.ID+"/complete-delivery", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := e.store.Parcels().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryDelivered, got.DeliveryStatus)
	require.NotNil(t, got.DeliveredAt)

	// delivered is terminal
	w = e.do(http.MethodPatch, "/parcels/"+p.ID+"/complete-delivery", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = e.do(http.MethodPatch, "/parcels/"+p.ID+"/assign-rider", map[string]any{"riderEmail": "other@x.io"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodGet, "/parcels/completed?email=rider@x.io", nil, rider...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Parcel](t, w), 1)

	w = e.do(http.MethodGet, "/parcels/completed", nil, rider...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{messages.ParcelAssigned, messages.ParcelDelivered}, e.events.types())
}
