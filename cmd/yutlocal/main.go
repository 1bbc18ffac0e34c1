// Command yutlocal serves a hot-seat Yut game over HTTP and websockets, without Nakama.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"yutnori/internal/config"
	"yutnori/internal/ports/httpws"
)

func main() {
	addr := flag.String("addr", getenv("YUT_ADDR", ":8080"), "listen address")
	seed := flag.Int64("seed", getenvInt64("YUT_SEED", time.Now().UnixNano()), "random seed for sticks and golden cells")
	configPath := flag.String("config", getenv("YUT_CONFIG", "data/game_config.json"), "game config JSON")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.LoadGameConfig(*configPath); err != nil {
		logger.Warn("using built-in defaults", zap.String("config", *configPath), zap.Error(err))
	}

	srv := httpws.NewServer(httpws.Options{Seed: *seed, Config: config.GetGameConfig()}, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go srv.Run(ctx.Done())

	server := &http.Server{Addr: *addr, Handler: srv.Router()}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	logger.Info("yutlocal listening", zap.String("addr", *addr), zap.Int64("seed", *seed))
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
