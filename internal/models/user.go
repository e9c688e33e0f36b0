package models

import "time"

// UnlimitedQuota is the sentinel meaning the user has no resource limit.
const UnlimitedQuota = -1

type User struct {
	ID             int64     `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	PlatformAdmin  bool      `json:"platform_admin" db:"platform_admin"`
	RegisteredAt   time.Time `json:"registered_at" db:"registered_at"`
	Quota          int       `json:"quota" db:"quota"`
	QuotaRemaining int       `json:"quota_remaining" db:"quota_remaining"`
}

// QuotaSet reports whether a resource limit applies to this user.
func (u *User) QuotaSet() bool {
	return u.Quota >= 0
}

// QuotaAvailable reports whether the user may create one more resource.
func (u *User) QuotaAvailable() bool {
	if !u.QuotaSet() {
		return true
	}
	return u.QuotaRemaining > 0
}
