package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/you/vllmgate/internal/auth"
	"github.com/you/vllmgate/internal/config"
	"github.com/you/vllmgate/internal/dispatch"
	"github.com/you/vllmgate/internal/logx"
	"github.com/you/vllmgate/internal/metrics"
	"github.com/you/vllmgate/internal/registry"
	"github.com/you/vllmgate/internal/scheduler"
	"github.com/you/vllmgate/internal/server"
	"github.com/you/vllmgate/internal/store"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	var cfg config.ServerConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	cfg.BindFlagsFromCurrent()
	flag.Parse()
	if err := cfg.LoadFile(); err != nil {
		logx.Log.Fatal().Err(err).Msg("load config file")
	}
	logx.Configure(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv := store.NewMemory()
	if cfg.RedisAddr != "" {
		var err error
		kv, err = store.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("connect redis")
		}
		logx.Log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	}
	defer func() { _ = kv.Close() }()

	reg := registry.New(kv)
	if err := reg.Load(ctx); err != nil {
		logx.Log.Fatal().Err(err).Msg("load worker records")
	}
	health := registry.NewHealth(reg, cfg.FailureThreshold)
	tracker := dispatch.NewTracker()
	engine := scheduler.NewEngine(tracker, cfg.AffinitySize)
	engine.SetLoadWeights(cfg.LoadRunning, cfg.LoadWaiting, cfg.LoadKVCache)
	dispatcher := dispatch.New(reg, health, engine, tracker, dispatch.Options{
		MaxAttempts: cfg.MaxAttempts,
		CallTimeout: cfg.RequestTimeout,
	})
	issuer := auth.NewJWT(cfg.AuthSecret, cfg.TokenTTL, cfg.AuthUsers)

	metrics.Register(prometheus.DefaultRegisterer)
	metrics.SetServerBuildInfo(version, buildSHA, buildDate)

	handler := server.New(reg, health, dispatcher, issuer, cfg)
	server.StartSweeper(ctx, health, reg, cfg.SweepInterval)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: handler}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logx.Log.Info().Int("port", cfg.Port).Str("version", version).Msg("gateway starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}
