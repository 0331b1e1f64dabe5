package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "nps_survey/internal/adapters/http_server"
	"nps_survey/internal/adapters/observability"
	redisad "nps_survey/internal/adapters/redis"
	"nps_survey/internal/app"
	"nps_survey/internal/domain"
	"nps_survey/internal/shared"
	"nps_survey/internal/storage/memory"
	mysqlrepo "nps_survey/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// store
	var repo domain.SurveyRepository
	switch cfg.StoreDriver {
	case shared.StoreMemory:
		log.Warn().Msg("using in-memory survey store; data is lost on restart")
		repo = memory.New()
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	// cache (optional)
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; analytics reads fall back to the store while it is down")
		}
		cache = rc
	}

	// deps
	q := app.NewAnalyticsService(repo, cache, cfg.CacheTTL())
	s := app.NewSubmissionService(repo, domain.Validator{AllowPunctuation: cfg.AllowCommentPunctuation}, q)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: s, Q: q})
	if cfg.TestingEnabled {
		srv.MountTesting(&server.TestingHandlers{S: s, Header: cfg.TestingHeader, Secret: cfg.TestingSecret})
	}

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	s.Wait()
	log.Info().Msg("API stopped")
}
