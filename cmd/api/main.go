package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-clinic/internal/appointments"
	"dental-clinic/internal/audit"
	"dental-clinic/internal/auth"
	"dental-clinic/internal/clinic"
	"dental-clinic/internal/config"
	"dental-clinic/internal/httpapi"
	"dental-clinic/internal/users"
	"dental-clinic/pkg/logger"
	"dental-clinic/pkg/queue"
	"dental-clinic/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, "dental-admin-api")
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis only caches principal names; the API runs without it.
	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, principal cache disabled", "err", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	producer := queue.NewProducer(queue.ProducerConfig{
		Broker:   cfg.Kafka.Broker,
		Topic:    cfg.Kafka.Topic,
		Username: cfg.Kafka.Username,
		Password: cfg.Kafka.Password,
	})
	if producer.Ready() {
		defer producer.Close()
	} else {
		log.Info("kafka not configured, audit stream disabled")
	}

	auditRepo := audit.NewPostgresRepo(db)
	principals := users.NewCachedDirectory(users.NewPostgresRepo(db), rdb, cfg.Audit.PrincipalCacheTTL)

	var publisher audit.Publisher
	if producer.Ready() {
		publisher = producer
	}
	auditWriter := audit.NewService(auditRepo, publisher)

	h := httpapi.Handlers{
		Audit:  audit.NewEngine(auditRepo, principals, appointments.NewPostgresRepo(db)).WithLocation(cfg.Audit.Location),
		Clinic: clinic.NewService(clinic.NewPostgresStore(db), auditWriter).WithLocation(cfg.Audit.Location),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	// Drain background audit publishes before the deferred producer.Close runs.
	auditWriter.Wait()
}
