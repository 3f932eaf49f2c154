package adminusers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"condowater/frontend/login"
	"condowater/infrastructure/argon"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/rbac"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

var (
	ErrEmailRequired       = errors.New("e-mail is required")
	ErrInvalidEmail        = errors.New("e-mail is not valid")
	ErrDisplayNameRequired = errors.New("name is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrInvalidRole         = errors.New("role must be admin or viewer")
	ErrUsernameExists      = errors.New("a user with this e-mail already exists")
)

// Registrar creates the matching account on the billing backend.
type Registrar interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error)
}

func LoadUsersPageData(ctx context.Context, db *sqlite.DB) (PageData, error) {
	users := make([]UserView, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw("SELECT id, username, display_name, role, created_at FROM users ORDER BY id ASC").Scan(ctx, &users)
	})
	return PageData{Users: users, Roles: rbac.AllRoles}, err
}

func normalizeNewUser(in NewUser) (NewUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Password = strings.TrimSpace(in.Password)
	in.Role = strings.TrimSpace(in.Role)

	switch {
	case in.Email == "":
		return in, ErrEmailRequired
	case in.DisplayName == "":
		return in, ErrDisplayNameRequired
	case in.Password == "":
		return in, ErrPasswordRequired
	case !rbac.ValidRole(in.Role):
		return in, ErrInvalidRole
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, ErrInvalidEmail
	}
	if err := login.ValidatePasswordForUser(in.Email, in.Password); err != nil {
		return in, err
	}
	return in, nil
}

// CreateUser stores a console operator and registers it on the backend inside
// the same write transaction, so a backend refusal leaves no local row.
func CreateUser(ctx context.Context, db *sqlite.DB, in NewUser, registrar Registrar, auditSvc *audit.Service, actorID int64) error {
	in, err := normalizeNewUser(in)
	if err != nil {
		return err
	}
	hash, err := argon.CreateHash(in.Password, argon.DefaultParams)
	if err != nil {
		return err
	}

	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("LOWER(username) = ?", in.Email).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrUsernameExists
		}

		now := time.Now().UTC()
		user := &models.User{
			Username:     in.Email,
			DisplayName:  in.DisplayName,
			PasswordHash: hash,
			Role:         in.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return err
		}

		if auditSvc != nil && actorID > 0 {
			if err := auditSvc.Write(ctx, tx, actorID, audit.ActionUserCreate, "user", strconv.FormatInt(user.ID, 10), nil, map[string]string{
				"username": user.Username,
				"role":     user.Role,
			}); err != nil {
				return err
			}
		}

		if registrar == nil {
			return nil
		}
		if _, err := registrar.Register(ctx, models.RegisterRequest{
			NomeUsuario:   in.DisplayName,
			EmailUsuario:  in.Email,
			SenhaUsuario:  in.Password,
			PerfilUsuario: rbac.ProfileForRole(in.Role),
		}); err != nil {
			return fmt.Errorf("backend registration failed: %w", err)
		}
		return nil
	})
}
