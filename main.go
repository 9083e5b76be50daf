package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"parcel-delivery-api/config"

	"github.com/gin-gonic/gin"
)

func main() {
	boot := newLogger(os.Stdout, "info")

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fatal(boot, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(boot, "invalid config", err)
	}

	log := newLogger(os.Stdout, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		fatal(log, "startup", err)
	}
	defer a.close()

	if err := a.run(ctx); err != nil {
		log.Error("server", slog.Any("err", err))
	}
}
