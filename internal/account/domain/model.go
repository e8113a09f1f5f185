package domain

import (
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the profile record stored alongside the identity provider,
// keyed by the provider-assigned uid.
type Account struct {
	UID               string  `json:"uid"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	EmailLower        string  `json:"email_lower"`
	EmailVerified     bool    `json:"email_verified"`
	PendingEmail      *string `json:"pending_email,omitempty"`
	PendingEmailLower *string `json:"pending_email_lower,omitempty"`

	Disabled            bool `json:"disabled"`
	ReactivationPending bool `json:"reactivation_pending"`

	Provider string `json:"provider"` // "password" or "google"

	CreatedAt               time.Time  `json:"created_at"`
	LastLoginAt             *time.Time `json:"last_login_at,omitempty"`
	VerifiedAt              *time.Time `json:"verified_at,omitempty"`
	EmailChangedAt          *time.Time `json:"email_changed_at,omitempty"`
	ReactivatedAt           *time.Time `json:"reactivated_at,omitempty"`
	ReactivationEmailSentAt *time.Time `json:"reactivation_email_sent_at,omitempty"`
}

// PendingEmailChange reports whether an email change is awaiting
// confirmation of the new address.
func (a *Account) PendingEmailChange() bool {
	return a.PendingEmailLower != nil && *a.PendingEmailLower != ""
}
