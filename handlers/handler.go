package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"parcel-delivery-api/broker/messages"
	"parcel-delivery-api/middleware"
	"parcel-delivery-api/payments"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
)

// Publisher emits domain events. Publishing is best effort.
type Publisher interface {
	PublishEvent(ctx context.Context, ev messages.ParcelEvent) error
}

// Revoker tracks logged-out refresh tokens
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

type Options struct {
	Store    storage.Store
	Tokens   *middleware.TokenService
	Payments payments.Gateway
	Events   Publisher
	Revoked  Revoker
	Cookies  CookieConfig
	Logger   *slog.Logger
	Now      func() time.Time
}

// Handler holds the dependencies shared by every endpoint
type Handler struct {
	store    storage.Store
	tokens   *middleware.TokenService
	payments payments.Gateway
	events   Publisher
	revoked  Revoker
	cookies  CookieConfig
	log      *slog.Logger
	now      func() time.Time
}

func New(opts Options) *Handler {
	registerValidators()

	h := &Handler{
		store:    opts.Store,
		tokens:   opts.Tokens,
		payments: opts.Payments,
		events:   opts.Events,
		revoked:  opts.Revoked,
		cookies:  opts.Cookies,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.cookies.SameSite == 0 {
		h.cookies.SameSite = http.SameSiteLaxMode
	}
	return h
}

func (h *Handler) clock() time.Time { return h.now().UTC() }

// publish sends ev without failing the request
func (h *Handler) publish(ctx context.Context, ev messages.ParcelEvent) {
	if h.events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = h.clock()
	}
	if err := h.events.PublishEvent(ctx, ev); err != nil {
		h.log.Warn("publish event failed", slog.String("type", ev.Type), slog.Any("err", err))
	}
}

func (h *Handler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, value, int(ttl/time.Second), "/", "", h.cookies.Secure, true)
}

func (h *Handler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, "", -1, "/", "", h.cookies.Secure, true)
}

func (h *Handler) setSessionCookies(c *gin.Context, pair middleware.TokenPair) {
	h.setCookie(c, middleware.AccessCookie, pair.Access, h.tokens.AccessTTL())
	h.setCookie(c, middleware.RefreshCookie, pair.Refresh, h.tokens.RefreshTTL())
}
