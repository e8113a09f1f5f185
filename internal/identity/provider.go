package identity

import (
	"context"
	"fmt"
)

// Session is an authenticated identity-provider session. It is an explicit
// value returned from sign-in operations and passed back into every
// session-scoped call; there is no ambient "current user".
type Session struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Provider      string `json:"provider"` // "password" or "google"
	IDToken       string `json:"id_token,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
}

// Provider is the external identity service the account lifecycle depends on.
// Implementations return *ProviderError for provider-side failures so the
// caller can map condition codes into its own error taxonomy.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignInWithFederatedToken(ctx context.Context, idToken string) (*Session, error)
	SendVerificationEmail(ctx context.Context, s *Session) error
	// SendVerificationEmailForNewAddress triggers a verify-before-update
	// email to newEmail; the provider's email only changes once the link
	// is confirmed.
	SendVerificationEmailForNewAddress(ctx context.Context, s *Session, newEmail string) error
	// ReloadSession refreshes UID/Email/EmailVerified/DisplayName from the
	// provider's current state.
	ReloadSession(ctx context.Context, s *Session) error
	Reauthenticate(ctx context.Context, s *Session, password string) error
	UpdatePassword(ctx context.Context, s *Session, newPassword string) error
	UpdateDisplayName(ctx context.Context, s *Session, name string) error
	SignOut(ctx context.Context, s *Session) error
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// Condition codes surfaced via ProviderError. Firebase's Identity Toolkit
// codes are used verbatim; the synthetic ones cover conditions the REST API
// reports out-of-band (transport failures, idp account conflicts).
const (
	CodeEmailExists            = "EMAIL_EXISTS"
	CodeEmailNotFound          = "EMAIL_NOT_FOUND"
	CodeInvalidPassword        = "INVALID_PASSWORD"
	CodeInvalidLoginCredential = "INVALID_LOGIN_CREDENTIALS"
	CodeUserDisabled           = "USER_DISABLED"
	CodeTooManyAttempts        = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeCredentialTooOld       = "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"
	CodeInvalidIDToken         = "INVALID_ID_TOKEN"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeUserMismatch           = "USER_MISMATCH"
	CodeNeedsConfirmation      = "NEEDS_CONFIRMATION"
	CodeNetworkError           = "NETWORK_ERROR"
)

type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
