package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) registerRider(email, region string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/riders", map[string]any{
		"name":   "Rider " + email,
		"email":  email,
		"region": region,
		"status": "approved",
		"bike":   "Honda",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	id, _ := decode[map[string]any](e.t, w)["insertedId"].(string)
	require.NotEmpty(e.t, id)
	return id
}

func TestCreateRider(t *testing.T) {
	e := newEnv(t)
	id := e.registerRider("r@x.io", "Dhaka")

	r, err := e.store.Riders().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RiderPending, r.Status)
	assert.Equal(t, "Honda", r.Details["bike"])
	assert.False(t, r.CreatedAt.IsZero())

	w := e.do(http.MethodPost, "/riders", map[string]any{"name": "X", "email": "x@x.io"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRiderApproval_PromotesUser(t *testing.T) {
	e := newEnv(t)
	admin := e.login("boss@x.io", models.RoleAdmin)
	e.login("r@x.io", models.RoleUser)
	id := e.registerRider("r@x.io", "Dhaka")

	w := e.do(http.MethodGet, "/riders/pending", nil, admin...)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[struct {
		Data []models.Rider `json:"data"`
	}](t, w)
	require.Len(t, pending.Data, 1)

	w = e.do(http.MethodPatch, "/riders/"+id, map[string]any{"status": "approved", "email": "r@x.io"}, admin...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Success     bool                  `json:"success"`
		RiderUpdate storage.UpdateResult  `json:"riderUpdate"`
		RoleUpdate  *storage.UpdateResult `json:"roleUpdate"`
	}](t, w)
	assert.True(t, body.Success)
	assert.Equal(t, int64(1), body.RiderUpdate.MatchedCount)
	require.NotNil(t, body.RoleUpdate)
	assert.Equal(t, int64(1), body.RoleUpdate.MatchedCount)

	u, err := e.store.Users().GetByEmail(context.Background(), "r@x.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, u.Role)

	// approving again is a no-op transition
	w = e.do(http.MethodPatch, "/riders/"+id, map[string]any{"status": "approved"}, admin...)
	assert.Equal(t, http.StatusOK, w.Code)

	// approval cannot be undone
	w = e.do(http.MethodPatch, "/riders/"+id, map[string]any{"status": "pending"}, admin...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodGet, "/riders/active", nil, admin...)
	require.Equal(t, http.StatusOK, w.Code)
	active := decode[struct {
		Data []models.Rider `json:"data"`
	}](t, w)
	require.Len(t, active.Data, 1)

	w = e.do(http.MethodGet, "/riders/by-region/Dhaka", nil)
	require.Equal(t, http.StatusOK, w.Code)
	byRegion := decode[struct {
		Data []models.Rider `json:"data"`
	}](t, w)
	assert.Len(t, byRegion.Data, 1)

	w = e.do(http.MethodGet, "/riders/by-region/Khulna", nil)
	assert.Empty(t, decode[struct {
		Data []models.Rider `json:"data"`
	}](t, w).Data)

	assert.Contains(t, e.events.types(), messages.RiderApproved)
}

func TestRiderApproval_WithoutUser(t *testing.T) {
	e := newEnv(t)
	admin := e.login("boss@x.io", models.RoleAdmin)
	id := e.registerRider("nobody@x.io", "Dhaka")

	w := e.do(http.MethodPatch, "/riders/"+id, map[string]any{"status": "approved"}, admin...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		RoleUpdate *storage.UpdateResult `json:"roleUpdate"`
	}](t, w)
	require.NotNil(t, body.RoleUpdate)
	assert.Zero(t, body.RoleUpdate.MatchedCount)

	r, err := e.store.Riders().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RiderApproved, r.Status)
}

func TestUpdateRider_FieldsAndErrors(t *testing.T) {
	e := newEnv(t)
	user := e.login("u@x.io", models.RoleUser)
	id := e.registerRider("r@x.io", "Dhaka")

	w := e.do(http.MethodPatch, "/riders/"+id, map[string]any{"phone": "555"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPatch, "/riders/"+id, map[string]any{"phone": "555", "region": "Khulna"}, user...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Nil(t, body["roleUpdate"])

	r, err := e.store.Riders().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "555", r.Phone)
	assert.Equal(t, "Khulna", r.Region)
	assert.Equal(t, models.RiderPending, r.Status)

	w = e.do(http.MethodPatch, "/riders/missing", map[string]any{"status": "approved"}, user...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPatch, "/riders/"+id, map[string]any{"status": "fired"}, user...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
