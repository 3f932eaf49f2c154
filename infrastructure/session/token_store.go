package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"condowater/infrastructure/cache"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

// SQLiteTokenStorage keeps backend tokens in sessions.backend_token and mirrors
// them into the session cache so middleware sees the current value.
type SQLiteTokenStorage struct {
	db       *sqlite.DB
	sessions *cache.UserSessionCache
}

func NewSQLiteTokenStorage(db *sqlite.DB, sessions *cache.UserSessionCache) *SQLiteTokenStorage {
	return &SQLiteTokenStorage{db: db, sessions: sessions}
}

func (s *SQLiteTokenStorage) LoadToken(ctx context.Context, sessionID string) (string, error) {
	if cached, ok := s.sessions.FindSessionBySessionToken(sessionID); ok {
		return cached.BackendToken, nil
	}
	var token string
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Table("sessions").
			Column("backend_token").
			Where("id = ?", sessionID).
			Scan(ctx, &token)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}

func (s *SQLiteTokenStorage) SaveToken(ctx context.Context, sessionID, token string) error {
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Session)(nil)).
			Set("backend_token = ?", token).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", sessionID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.sessions.SetBackendToken(sessionID, token)
	return nil
}

func (s *SQLiteTokenStorage) ClearToken(ctx context.Context, sessionID string) error {
	return s.SaveToken(ctx, sessionID, "")
}
