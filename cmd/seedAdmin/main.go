package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"condowater/frontend/login"
	"condowater/infrastructure/rbac"
	"condowater/infrastructure/sqlite"
)

func main() {
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	defaultDBPath := filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(migrationsDir))), "condowater.db")
	dbPath := getenv("SQLITE_PATH", defaultDBPath)

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	// The e-mail and password must match an admin account of the billing
	// backend, since every console login is replayed there.
	adminEmail := strings.ToLower(getenv("ADMIN_EMAIL", "admin@condo.local"))
	adminName := getenv("ADMIN_NAME", "Administrador")
	adminPassword := getenv("ADMIN_PASSWORD", "Hidrometro#Admin1")
	if err := seedAdmin(context.Background(), db, adminEmail, adminName, adminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	fmt.Printf("seeded admin user (username=%s)\n", adminEmail)
}

// seedAdmin creates the admin operator, or resets its name and password when
// it already exists.
func seedAdmin(ctx context.Context, db *sqlite.DB, email, name, password string) error {
	if err := login.ValidatePasswordPolicy(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	return login.UpsertUserPasswordHash(ctx, db, email, name, rbac.RoleAdmin, password)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
