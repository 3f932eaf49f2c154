package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"condowater/models"
)

// Audited actions.
const (
	ActionReadingsSubmit = "readings.submit"
	ActionUserCreate     = "user.create"
	ActionLogin          = "session.login"
)

// Service writes audit records inside the caller transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, userID int64, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	_, err = tx.NewInsert().Model(&models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}).Exec(ctx)
	return err
}

// Entry is an audit row joined with the acting user.
type Entry struct {
	ID         int64     `bun:"id"`
	Action     string    `bun:"action"`
	EntityType string    `bun:"entity_type"`
	EntityID   string    `bun:"entity_id"`
	AfterJSON  string    `bun:"after_json"`
	Username   string    `bun:"username"`
	CreatedAt  time.Time `bun:"created_at"`
}

// Recent returns the newest entries first, optionally limited to actions.
func (s *Service) Recent(ctx context.Context, tx bun.Tx, limit int, actions ...string) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := tx.NewSelect().
		TableExpr("audit_logs AS al").
		ColumnExpr("al.id, al.action, al.entity_type, al.entity_id, COALESCE(al.after_json, '') AS after_json, al.created_at").
		ColumnExpr("COALESCE(u.username, '') AS username").
		Join("LEFT JOIN users AS u ON u.id = al.user_id").
		OrderExpr("al.created_at DESC, al.id DESC").
		Limit(limit)
	if len(actions) > 0 {
		q = q.Where("al.action IN (?)", bun.In(actions))
	}
	entries := make([]Entry, 0)
	if err := q.Scan(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
