package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity-service/internal/accesscontrol"
	"identity-service/internal/audit"
	auditrepo "identity-service/internal/audit/repository"
	"identity-service/internal/bootstrap"
	"identity-service/internal/config"
	"identity-service/internal/db"
	"identity-service/internal/identity/service"
	"identity-service/internal/kv"
	permissionrepo "identity-service/internal/permission/repository"
	rolerepo "identity-service/internal/role/repository"
	"identity-service/internal/security"
	"identity-service/internal/server"
	"identity-service/internal/session"
	"identity-service/internal/telemetry/otel"
	userrepo "identity-service/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "identity-service", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	redisClient, err := kv.Open(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens, err := security.NewTokenProvider(
		[]byte(cfg.JWTAccessSecret),
		[]byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	users := userrepo.NewPostgresRepository(pool)
	roles := rolerepo.NewPostgresRepository(pool)
	permissions := permissionrepo.NewPostgresRepository(pool)
	sessions := session.NewRedisStore(redisClient, cfg.RefreshTTL())

	if err := bootstrap.EnsureAccessControl(ctx, permissions, roles); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(pool), server.ClientIP)
	auth := service.NewAuthService(users, sessions, hasher, tokens, auditLogger)

	router := server.NewRouter(server.RouterOptions{
		Auth:        server.NewAuthHandler(auth, cfg.RefreshTTL()),
		Users:       server.NewUsersHandler(users, hasher),
		Roles:       server.NewRolesHandler(roles),
		Permissions: server.NewPermissionsHandler(permissions),
		Tokens:      tokens,
		Policy:      accesscontrol.DefaultPolicy(),
		Telemetry:   server.NewTelemetry(providers.TracerProvider, providers.MeterProvider),
		CORSOrigins: cfg.CORSOriginList(),
		Timeout:     cfg.Timeout(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
