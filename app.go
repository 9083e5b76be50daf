package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"parcel-delivery-api/broker/kafka"
	"parcel-delivery-api/cache/rediscache"
	"parcel-delivery-api/config"
	"parcel-delivery-api/handlers"
	"parcel-delivery-api/middleware"
	"parcel-delivery-api/payments"
	"parcel-delivery-api/routes"
	"parcel-delivery-api/storage"
	"parcel-delivery-api/storage/mongostore"
	"parcel-delivery-api/storage/sqlstore"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    storage.Store
	producer *kafka.Producer
	redis    *redis.Client
	router   *gin.Engine
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// openStore connects the configured backend and checks it answers
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		st  storage.Store
		err error
	)
	switch cfg.StorageDriver {
	case config.DriverMongo:
		st, err = mongostore.New(ctx, cfg.MongoConnectionURI(), cfg.MongoDB)
	case config.DriverSQLite, config.DriverPostgres:
		st, err = sqlstore.Open(cfg.StorageDriver, cfg.SQLDSN)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close(context.Background())
		return nil, errors.Wrap(err, "ping store")
	}
	return st, nil
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// cors allows the single configured frontend origin with credentials
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Origin") == origin {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, log *slog.Logger, deps routes.Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), cors(cfg.CORSOrigin))
	routes.SetupRoutes(r, deps)
	return r
}

// newApp wires config, store, gateways and router in that order.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, store: st}
	log.Info("store connected", slog.String("driver", cfg.StorageDriver))

	var (
		events  handlers.Publisher
		revoker handlers.Revoker
		limiter middleware.Limiter
	)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		a.producer = kafka.NewProducer(brokers, cfg.KafkaTopic)
		events = a.producer
		log.Info("event publishing enabled", slog.String("topic", cfg.KafkaTopic))
	}
	if cfg.RedisAddr != "" {
		a.redis = rediscache.NewClient(cfg.RedisAddr)
		rev := rediscache.NewRevocations(a.redis)
		pctx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := rev.Ping(pctx)
		cancel()
		if err != nil {
			a.close()
			return nil, errors.Wrap(err, "ping redis")
		}
		revoker = rev
		if cfg.RateLimitPerMinute > 0 {
			limiter = rediscache.NewRateLimiter(a.redis, int64(cfg.RateLimitPerMinute), time.Minute)
		}
	}

	tokens := middleware.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	h := handlers.New(handlers.Options{
		Store:    st,
		Tokens:   tokens,
		Payments: payments.NewStripe(cfg.StripePrivateKey, cfg.PaymentCurrency, nil),
		Events:   events,
		Revoked:  revoker,
		Cookies:  handlers.CookieConfig{Secure: cfg.CookieSecure, SameSite: sameSite(cfg.CookieSameSite)},
		Logger:   log,
	})
	a.router = newRouter(cfg, log, routes.Deps{
		Handler: h,
		Auth:    middleware.NewAuth(tokens, st.Users()),
		Limiter: limiter,
		Logger:  log,
	})
	return a, nil
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (a *app) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (a *app) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("close kafka producer", slog.Any("err", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("close redis", slog.Any("err", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(context.Background()); err != nil {
			a.log.Warn("close store", slog.Any("err", err))
		}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("err", err))
	os.Exit(1)
}
