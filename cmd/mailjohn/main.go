package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/dropDatabas3/mailjohn/internal/auditlog"
	"github.com/dropDatabas3/mailjohn/internal/config"
	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/http/handlers"
	"github.com/dropDatabas3/mailjohn/internal/http/router"
	"github.com/dropDatabas3/mailjohn/internal/metrics"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/rate"
	"github.com/dropDatabas3/mailjohn/internal/settings"
	settingsfs "github.com/dropDatabas3/mailjohn/internal/settings/fs"
	settingspg "github.com/dropDatabas3/mailjohn/internal/settings/pg"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfgPath := flag.String("config", "", "ruta al config.yaml (vacío = defaults + env)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "mailjohn",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()

	if err := metrics.RegisterEmail(nil); err != nil {
		log.Fatalf("❌ metrics: %v", err)
	}

	ctx := context.Background()

	var provider settings.Provider
	switch cfg.Settings.Driver {
	case "postgres":
		pgProv, err := settingspg.New(ctx, cfg.Settings.DSN, cfg.Settings.MasterKey)
		if err != nil {
			log.Fatalf("❌ settings (postgres): %v", err)
		}
		defer pgProv.Close()
		provider = pgProv
	default:
		provider = settingsfs.NewProvider(cfg.Settings.Path, cfg.Settings.MasterKey)
	}

	audit := auditlog.New(cfg.Audit.BaseDir)

	svc, err := email.NewService(email.ServiceConfig{
		Settings: provider,
		Audit:    audit,
	})
	if err != nil {
		log.Fatalf("❌ email service: %v", err)
	}

	// Best-effort: si SMTP no está configurado todavía el server arranca igual
	// y el transporte se inicializa lazy en el primer envío.
	if svc.Initialize(ctx) {
		log.Println("✅ SMTP transport verified")
	} else {
		log.Println("⚠️  SMTP not configured yet; will retry on first send")
	}

	var limiter rate.Limiter
	if cfg.Rate.RedisAddr != "" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Rate.RedisAddr,
			Password: cfg.Rate.RedisPassword,
		})
		defer client.Close()
		limiter = rate.NewRedisLimiter(client, "", cfg.Rate.Max, cfg.RateWindowDur())
		log.Printf("✅ rate limiting enabled (%d/%s via %s)", cfg.Rate.Max, cfg.Rate.Window, cfg.Rate.RedisAddr)
	}

	mux := router.New(router.Deps{
		Notify: &handlers.NotifyHandler{Svc: svc, Limiter: limiter},
		Admin:  &handlers.AdminHandler{Svc: svc, Limiter: limiter, APIKey: cfg.Admin.APIKey},
	})

	log.Printf("🚀 mailjohn listening on %s", cfg.Server.Addr)
	log.Println("   • Health:  GET  /healthz")
	log.Println("   • Metrics: GET  /metrics")
	log.Println("   • Notify:  POST /v1/notify/{modification,vm-expiration,iam-expiration}")
	log.Println("   • Admin:   POST /v1/admin/email/{test,initialize} (X-Admin-API-Key)")

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeoutDur(),
		WriteTimeout: cfg.WriteTimeoutDur(),
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ server failed: %v", err)
	}
}
