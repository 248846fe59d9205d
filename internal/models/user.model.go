package models

import (
	"strings"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ParseRole maps a token role claim onto a known role. Anything that is not
// an administrator is treated as a regular user.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

type User struct {
	BaseModel
	Subject  string `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Username string `gorm:"type:varchar(255);not null"             json:"username"`
	Email    string `gorm:"type:varchar(255)"                      json:"email"`
	Role     Role   `gorm:"type:varchar(16);not null;default:'User'" json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Subject == "" {
		return gorm.ErrInvalidValue
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateFromClaims copies identity details from a verified token onto the
// user and reports whether anything changed.
func (u *User) UpdateFromClaims(username, email string, role Role) bool {
	changed := false

	if username != "" && username != u.Username {
		u.Username = username
		changed = true
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && email != u.Email {
		u.Email = email
		changed = true
	}

	if role != "" && role != u.Role {
		u.Role = role
		changed = true
	}

	return changed
}

type UserProfile struct {
	ID       int    `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
