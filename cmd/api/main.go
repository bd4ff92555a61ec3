package main

import (
	"net/http"
	"time"

	"pet-adoption-market/internal/adapters/auth/gateway"
	"pet-adoption-market/internal/adapters/storage/postgres"
	"pet-adoption-market/internal/platform/config"
	"pet-adoption-market/internal/platform/logger"
	"pet-adoption-market/internal/ports/auth"
	"pet-adoption-market/internal/router"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// todavía no hay logger armado
		panic(err)
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	opts := router.Options{Logger: log}

	if cfg.DBDSN != "" {
		db, err := postgres.Open(cfg.DBDSN)
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		if cfg.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				log.Fatal("db migrate failed", zap.Error(err))
			}
		}
		opts.DB = db
		log.Info("storage: postgres")
	} else {
		log.Info("storage: in-memory (DB_DSN vacío)")
	}

	// Sin AUTH_BASE_URL queda el modo dev (headers X-Debug-*).
	var verifier auth.AuthVerifier
	if cfg.AuthBaseURL != "" {
		client, err := gateway.NewClient(gateway.Config{BaseURL: cfg.AuthBaseURL})
		if err != nil {
			log.Fatal("auth gateway config failed", zap.Error(err))
		}
		verifier = gateway.NewVerifier(client)
		log.Info("auth: gateway verifier", zap.String("base_url", cfg.AuthBaseURL))
	} else {
		log.Info("auth: dev mode")
	}
	opts.AuthVerifier = verifier

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
