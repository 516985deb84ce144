package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ankouyang/apiprobe/internal/config"
	"github.com/ankouyang/apiprobe/internal/httpapi"
	apimw "github.com/ankouyang/apiprobe/internal/httpapi/middleware"
	"github.com/ankouyang/apiprobe/internal/logging"
	"github.com/ankouyang/apiprobe/internal/notify"
	"github.com/ankouyang/apiprobe/internal/probe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal(err)
	}
	logger, closeLog, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	runner := probe.NewRunner(probe.WithLogger(logger), probe.WithDNSDiagnosis(net.DefaultResolver))
	api := httpapi.NewServer(logger, runner, cfg, notify.New(cfg.SlackWebhook, logger))
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.RateRPM, cfg.RateBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Bool("credential_set", cfg.APIKey != ""),
		zap.Bool("proxied", cfg.ProxyURL != ""),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api_listen_failed", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
	logger.Info("api_stopped")
}
