package domain

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Account struct {
	ID             int64
	Email          string
	Nickname       string
	PasswordHash   string
	Role           Role
	ProfileImageID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile is the read model returned to the account owner.
type Profile struct {
	ID              int64
	Email           string
	Nickname        string
	Role            Role
	ProfileImageID  int64
	ProfileImageURL string
	CreatedAt       time.Time
}
