package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a console operator.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers. BackendToken holds the
// bearer token issued by the billing backend for this console session.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	BackendToken      string         `bun:"backend_token,notnull"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ReadingSubmission records one monthly readings submission sent to the backend.
type ReadingSubmission struct {
	bun.BaseModel `bun:"table:reading_submissions,alias:rs"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	UserID             int64     `bun:"user_id,notnull"`
	WizardSessionID    string    `bun:"wizard_session_id,notnull"`
	DataRef            string    `bun:"data_ref,notnull"`
	UnitCount          int       `bun:"unit_count,notnull"`
	ResultCount        int       `bun:"result_count,notnull"`
	TotalConsumptionM3 float64   `bun:"total_consumption_m3,notnull"`
	Status             string    `bun:"status,notnull"`
	Message            string    `bun:"message,notnull"`
	PayloadJSON        string    `bun:"payload_json,notnull"`
	ResponseJSON       string    `bun:"response_json,notnull"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

const (
	SubmissionProcessed = "processed"
	SubmissionFailed    = "failed"
)
