package domain

import "time"

// User es el registro de identidad. Los hashes de tokens nunca salen por JSON.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	RefreshTokenHash      string     `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	ResetTokenHash        string     `json:"-"`
	ResetTokenExpiresAt   *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
}

// HasLiveRefreshToken indica si hay un refresh token vigente en now.
func (u User) HasLiveRefreshToken(now time.Time) bool {
	if u.RefreshTokenHash == "" || u.RefreshTokenExpiresAt == nil {
		return false
	}
	return now.Before(*u.RefreshTokenExpiresAt)
}

// HasLiveResetToken indica si hay un token de reseteo vigente en now.
func (u User) HasLiveResetToken(now time.Time) bool {
	if u.ResetTokenHash == "" || u.ResetTokenExpiresAt == nil {
		return false
	}
	return now.Before(*u.ResetTokenExpiresAt)
}
