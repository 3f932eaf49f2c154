package adminusers

import (
	"time"

	"condowater/frontend/shared/nav"
)

type UserView struct {
	ID          int64     `bun:"id"`
	Username    string    `bun:"username"`
	DisplayName string    `bun:"display_name"`
	Role        string    `bun:"role"`
	CreatedAt   time.Time `bun:"created_at"`
}

// NewUser is the admin form input for a console operator.
type NewUser struct {
	Email       string
	DisplayName string
	Password    string
	Role        string
}

type PageData struct {
	Nav          nav.TopNavData
	Users        []UserView
	Roles        []string
	RoleScreens  map[string][]string
	Status       string
	ErrorMessage string
}
