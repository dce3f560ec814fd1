package entities

import (
	"time"

	"github.com/google/uuid"
)

// User represents a portal account. Identity numbers are kept only as
// salted hashes plus keyed fingerprints used for uniqueness checks.
type User struct {
	ID                       uuid.UUID `json:"id"`
	FullName                 string    `json:"fullName"`
	Username                 string    `json:"username"`
	PasswordHash             string    `json:"-"`
	IDNumberHash             string    `json:"-"`
	IDNumberFingerprint      string    `json:"-"`
	AccountNumberHash        string    `json:"-"`
	AccountNumberFingerprint string    `json:"-"`
	Role                     Role      `json:"role"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary strips every secret-derived field.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FullName:  u.FullName,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterInput represents input for customer registration
type RegisterInput struct {
	FullName      string `json:"fullName"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

// LoginInput represents input for user login
type LoginInput struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	AccountNumber string `json:"accountNumber"`
}

// ProvisionInput describes one employee account created by an operator.
type ProvisionInput struct {
	FullName      string `json:"fullName"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
}

// Session is the result of a successful login. The token travels only in a cookie.
type Session struct {
	Token     string       `json:"-"`
	TokenID   string       `json:"-"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *UserSummary `json:"user"`
}
