package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/cache/rediscache"
	"parcel-delivery-api/handlers"
	"parcel-delivery-api/middleware"
	"parcel-delivery-api/models"
	"parcel-delivery-api/payments"
	"parcel-delivery-api/routes"
	"parcel-delivery-api/storage"
	"parcel-delivery-api/storage/sqlstore"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type stubGateway struct {
	lastAmount int64
	secret     string
	err        error
}

func (g *stubGateway) CreateIntent(_ context.Context, amountMinor int64) (string, error) {
	g.lastAmount = amountMinor
	return g.secret, g.err
}

type eventRecorder struct {
	mu     sync.Mutex
	events []messages.ParcelEvent
}

func (r *eventRecorder) PublishEvent(_ context.Context, ev messages.ParcelEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	t      *testing.T
	store  *sqlstore.Store
	tokens *middleware.TokenService
	gw     *stubGateway
	events *eventRecorder
	router *gin.Engine
}

type envOption func(*routes.Deps, *handlers.Options)

func withLimiter(l middleware.Limiter) envOption {
	return func(d *routes.Deps, _ *handlers.Options) { d.Limiter = l }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	st, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &testEnv{
		t:      t,
		store:  st,
		tokens: middleware.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour),
		gw:     &stubGateway{secret: "pi_secret"},
		events: &eventRecorder{},
	}

	hopts := handlers.Options{
		Store:    st,
		Tokens:   e.tokens,
		Payments: e.gw,
		Events:   e.events,
		Revoked:  rediscache.NewRevocations(rediscache.NewClient(mr.Addr())),
		Logger:   log,
	}
	deps := routes.Deps{Auth: middleware.NewAuth(e.tokens, st.Users()), Logger: log}
	for _, o := range opts {
		o(&deps, &hopts)
	}
	deps.Handler = handlers.New(hopts)

	e.router = gin.New()
	routes.SetupRoutes(e.router, deps)
	return e
}

func (e *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "192.0.2.1:5555"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login stores a user with the given role and returns its session cookies
func (e *testEnv) login(email string, role models.UserRole) []*http.Cookie {
	e.t.Helper()
	ctx := context.Background()
	u, _, err := e.store.Users().Upsert(ctx, models.UserUpsert{Email: email, Name: email, Role: role, Now: time.Now().UTC()})
	require.NoError(e.t, err)
	if u.Role != role {
		_, err = e.store.Users().SetRole(ctx, u.ID, role)
		require.NoError(e.t, err)
		u.Role = role
	}
	pair, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return []*http.Cookie{
		{Name: middleware.AccessCookie, Value: pair.Access},
		{Name: middleware.RefreshCookie, Value: pair.Refresh},
	}
}

func (e *testEnv) seedParcel(trackingID, email string, created time.Time) *models.Parcel {
	e.t.Helper()
	p := &models.Parcel{
		TrackingID:     trackingID,
		UserEmail:      email,
		CreationDate:   created,
		DeliveryStatus: models.DeliveryPending,
		PaymentStatus:  models.PaymentUnpaid,
	}
	require.NoError(e.t, e.store.Parcels().Create(context.Background(), p))
	return p
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var _ payments.Gateway = (*stubGateway)(nil)
var _ storage.Store = (*sqlstore.Store)(nil)
var errGateway = errors.New("gateway down")
