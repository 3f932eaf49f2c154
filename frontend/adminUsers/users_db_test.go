package adminusers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"condowater/infrastructure/argon"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/backend"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

type fakeRegistrar struct {
	got []models.RegisterRequest
	err error
}

func (f *fakeRegistrar) Register(_ context.Context, req models.RegisterRequest) (models.MessageResponse, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return models.MessageResponse{}, f.err
	}
	return models.MessageResponse{Message: "Usuário registrado com sucesso!"}, nil
}

func openAdminUsersTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "admin-users-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func countUsers(t *testing.T, db *sqlite.DB) int {
	t.Helper()
	var n int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM users`).Scan(ctx, &n)
	})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestCreateUser_HappyPathStoresHashRoleAndRegisters(t *testing.T) {
	db := openAdminUsersTestDB(t)
	reg := &fakeRegistrar{}

	in := NewUser{Email: " Portaria@Condo.test ", DisplayName: "Portaria", Password: "Leituras#2026ok", Role: "viewer"}
	if err := CreateUser(context.Background(), db, in, reg, nil, 0); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var role, passwordHash, displayName string
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT role, password_hash, display_name FROM users WHERE username = ?`, "portaria@condo.test").Scan(ctx, &role, &passwordHash, &displayName)
	})
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if role != "viewer" || displayName != "Portaria" {
		t.Fatalf("unexpected role/name: %s %s", role, displayName)
	}
	ok, err := argon.ComparePasswordAndHash("Leituras#2026ok", passwordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to match password (err=%v)", err)
	}

	if len(reg.got) != 1 {
		t.Fatalf("expected one backend registration, got %d", len(reg.got))
	}
	want := models.RegisterRequest{NomeUsuario: "Portaria", EmailUsuario: "portaria@condo.test", SenhaUsuario: "Leituras#2026ok", PerfilUsuario: "user"}
	if reg.got[0] != want {
		t.Fatalf("unexpected register request %+v", reg.got[0])
	}
}

func TestCreateUser_DuplicateEmailRejectedCaseInsensitive(t *testing.T) {
	db := openAdminUsersTestDB(t)

	if err := CreateUser(context.Background(), db, NewUser{Email: "case@condo.test", DisplayName: "Case", Password: "Leituras#2026ok", Role: "viewer"}, nil, nil, 0); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	reg := &fakeRegistrar{}
	err := CreateUser(context.Background(), db, NewUser{Email: "CASE@condo.test", DisplayName: "Case 2", Password: "Leituras#2026ok", Role: "admin"}, reg, nil, 0)
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	if len(reg.got) != 0 {
		t.Fatalf("backend must not be called for a duplicate")
	}
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	db := openAdminUsersTestDB(t)

	cases := []struct {
		name string
		in   NewUser
		want error
	}{
		{name: "missing email", in: NewUser{DisplayName: "X", Password: "Leituras#2026ok", Role: "viewer"}, want: ErrEmailRequired},
		{name: "bad email", in: NewUser{Email: "not-an-email", DisplayName: "X", Password: "Leituras#2026ok", Role: "viewer"}, want: ErrInvalidEmail},
		{name: "missing name", in: NewUser{Email: "x@condo.test", Password: "Leituras#2026ok", Role: "viewer"}, want: ErrDisplayNameRequired},
		{name: "invalid role", in: NewUser{Email: "x@condo.test", DisplayName: "X", Password: "Leituras#2026ok", Role: "scanner"}, want: ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CreateUser(context.Background(), db, tc.in, nil, nil, 0); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateUser_PasswordPolicyEnforced(t *testing.T) {
	db := openAdminUsersTestDB(t)

	err := CreateUser(context.Background(), db, NewUser{Email: "weak@condo.test", DisplayName: "Weak", Password: "abcd", Role: "viewer"}, nil, nil, 0)
	if err == nil {
		t.Fatalf("expected password policy error")
	}
	if !strings.Contains(err.Error(), "password must") {
		t.Fatalf("expected password policy message, got %v", err)
	}
}

func TestCreateUser_BackendRefusalRollsBack(t *testing.T) {
	db := openAdminUsersTestDB(t)
	reg := &fakeRegistrar{err: &backend.APIError{Status: http.StatusConflict, Message: "Usuário ou email já existe!"}}

	err := CreateUser(context.Background(), db, NewUser{Email: "dup@condo.test", DisplayName: "Dup", Password: "Leituras#2026ok", Role: "admin"}, reg, nil, 0)
	if err == nil || !strings.Contains(err.Error(), "já existe") {
		t.Fatalf("expected backend error, got %v", err)
	}
	if n := countUsers(t, db); n != 0 {
		t.Fatalf("expected no local user after backend refusal, got %d", n)
	}
}

func TestCreateUser_WritesAudit(t *testing.T) {
	db := openAdminUsersTestDB(t)
	if err := CreateUser(context.Background(), db, NewUser{Email: "admin@condo.test", DisplayName: "Admin", Password: "Leituras#2026ok", Role: "admin"}, nil, nil, 0); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := CreateUser(context.Background(), db, NewUser{Email: "bia@condo.test", DisplayName: "Bia", Password: "Leituras#2026ok", Role: "viewer"}, nil, audit.NewService(), 1); err != nil {
		t.Fatalf("create user: %v", err)
	}

	data, err := LoadUsersPageData(context.Background(), db)
	if err != nil {
		t.Fatalf("load page data: %v", err)
	}
	if len(data.Users) != 2 || data.Users[1].Username != "bia@condo.test" {
		t.Fatalf("unexpected users %+v", data.Users)
	}

	var action, after string
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT action, after_json FROM audit_logs`).Scan(ctx, &action, &after)
	})
	if err != nil {
		t.Fatalf("load audit: %v", err)
	}
	if action != audit.ActionUserCreate || !strings.Contains(after, "bia@condo.test") {
		t.Fatalf("unexpected audit row %s %s", action, after)
	}
}
