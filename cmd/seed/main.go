// seed inserts development sample data for local testing.
// Idempotent: existing rows are reused and the dev admin user is only
// created if dev@example.com is absent.
package main

import (
	"context"
	"log"

	"identity-service/internal/bootstrap"
	"identity-service/internal/config"
	"identity-service/internal/db"
	permissionrepo "identity-service/internal/permission/repository"
	rolerepo "identity-service/internal/role/repository"
	"identity-service/internal/security"
	userdomain "identity-service/internal/user/domain"
	userrepo "identity-service/internal/user/repository"
)

const (
	devAdminEmail    = "dev@example.com"
	devAdminUsername = "dev-admin"
	devAdminPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	permissions := permissionrepo.NewPostgresRepository(pool)
	roles := rolerepo.NewPostgresRepository(pool)
	users := userrepo.NewPostgresRepository(pool)

	if err := bootstrap.EnsureAccessControl(ctx, permissions, roles); err != nil {
		log.Fatalf("seed: %v", err)
	}

	existing, err := users.GetByEmail(ctx, devAdminEmail)
	if err != nil {
		log.Fatalf("seed: look up dev user: %v", err)
	}
	if existing != nil {
		log.Printf("seed: dev user %s already exists, skipping", devAdminEmail)
		return
	}

	adminRole, err := roles.GetByName(ctx, "admin")
	if err != nil || adminRole == nil {
		log.Fatalf("seed: admin role missing: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devAdminPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	user := &userdomain.User{
		Username:     devAdminUsername,
		Email:        devAdminEmail,
		FirstName:    "Dev",
		LastName:     "Admin",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := users.Create(ctx, user, []int64{adminRole.ID}); err != nil {
		log.Fatalf("seed: create dev user: %v", err)
	}
	log.Printf("seed: created dev admin %s (password %q)", devAdminEmail, devAdminPassword)
}
