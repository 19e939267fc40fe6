package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	PassHash           string     `json:"pass_hash"`
	IsVerified         bool       `json:"is_verified"`
	Role               string     `json:"role"`
	VerificationCode   string     `json:"verification_code,omitempty"`
	VerificationExpiry *time.Time `json:"verification_expiry,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Profile is the reduced view returned to callers. The password digest and
// verification code never leave the service.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

type Session struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks the stored expiry, not the store's eviction.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.After(time.Now())
}

type ResetCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *ResetCode) IsExpired() bool {
	return !c.ExpiresAt.After(time.Now())
}
