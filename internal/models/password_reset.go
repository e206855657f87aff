package models

import "time"

// PasswordReset stores a single-use reset token issued by forgot-password.
// Tokens older than an hour are treated as expired.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index;not null" json:"email"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for PasswordReset model
func (PasswordReset) TableName() string {
	return "password_resets"
}

// Expired reports whether the token is past its validity window
func (p *PasswordReset) Expired() bool {
	return time.Since(p.CreatedAt) > time.Hour
}
