package models

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform normalizes user input such as "FACEBOOK" or " instagram ".
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

type SocialAccount struct {
	ID                int64      `db:"id" json:"id"`
	Platform          Platform   `db:"platform" json:"platform"`
	ExternalAccountID string     `db:"external_account_id" json:"external_account_id"`
	DisplayName       string     `db:"display_name" json:"display_name"`
	AccessToken       string     `db:"access_token" json:"-"`
	TokenExpiry       *time.Time `db:"token_expiry" json:"token_expiry"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	ConnectedBy       string     `db:"connected_by" json:"connected_by"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// RemainingValidity returns how long the token is still valid at now.
// ok is false when the expiry is unknown.
func (sa *SocialAccount) RemainingValidity(now time.Time) (remaining time.Duration, ok bool) {
	if sa.TokenExpiry == nil {
		return 0, false
	}
	return sa.TokenExpiry.Sub(now), true
}
