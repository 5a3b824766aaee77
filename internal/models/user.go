package models

import (
	"time"
)

// User is an account row. A nil PasswordHash marks a social-only account.
type User struct {
	ID               uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string            `gorm:"not null;size:255;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash     *string           `gorm:"size:80" json:"-"`
	IsDeleted        bool              `gorm:"not null;default:false;index" json:"is_deleted"`
	AccountType      AccountType       `gorm:"not null" json:"account_type"`
	SocialSignupType *SocialSignupType `json:"social_signup_type"`
	LoginCount       int               `gorm:"not null;default:0" json:"login_count"`
	LastLoginAt      *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Social returns the signup type, treating NULL as SocialSignupNone.
func (u *User) Social() SocialSignupType {
	if u.SocialSignupType == nil {
		return SocialSignupNone
	}
	return *u.SocialSignupType
}
