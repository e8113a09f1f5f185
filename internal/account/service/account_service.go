package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aquavolt-iot/aquavolt-backend/internal/account/domain"
	"github.com/aquavolt-iot/aquavolt-backend/internal/identity"
)

// AccountStore is the record-store contract the lifecycle depends on.
// Implemented by repository.Repo; faked in tests.
type AccountStore interface {
	Get(ctx context.Context, uid string) (*domain.Account, error)
	Set(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, uid string, patch map[string]any) error
	FindByEmail(ctx context.Context, emailLower string) (string, error)
	LookupIndex(ctx context.Context, emailKey string) (string, error)
	PutIndex(ctx context.Context, emailKey, uid string) error
	DeleteIndex(ctx context.Context, emailKey string) error
}

// AccountService orchestrates the account lifecycle: signup, verification,
// login gating, email/password changes with re-authentication, disable and
// reactivation. Provider and store failures are mapped into the domain
// error taxonomy at this boundary.
type AccountService struct {
	provider identity.Provider
	store    AccountStore

	// verification reload is retried exactly once after this delay
	reloadRetryDelay time.Duration
	now              func() time.Time
}

func NewAccountService(provider identity.Provider, store AccountStore) *AccountService {
	return &AccountService{
		provider:         provider,
		store:            store,
		reloadRetryDelay: 2 * time.Second,
		now:              time.Now,
	}
}

// SignUp registers a password account and triggers the verification email.
// The caller lands in the pending-verification state; login is blocked
// until the address is confirmed.
func (s *AccountService) SignUp(ctx context.Context, fullName, email, password string) (*identity.Session, error) {
	name := domain.FormatName(fullName)
	if len([]rune(name)) < domain.MinFullNameLen {
		return nil, domain.FieldError("fullName", "full name must be at least 8 characters")
	}

	emailLower := domain.NormalizeEmail(email)
	if !domain.IsValidEmail(emailLower) {
		return nil, domain.FieldError("email", "enter a valid email address")
	}

	if !domain.IsStrongPassword(password) {
		return nil, domain.FieldError("password", "password must be 8+ chars and include uppercase, lowercase, and a number")
	}

	// Best-effort pre-check against the uniqueness index. The provider is
	// authoritative: a lookup failure here does not block the signup, and
	// a provider-level EMAIL_EXISTS after a clean pre-check is still
	// surfaced below.
	if uid, err := s.store.LookupIndex(ctx, domain.EmailKey(emailLower)); err != nil {
		log.Printf("[account] email pre-check failed, deferring to provider: %v", err)
	} else if uid != "" {
		return nil, domain.E(domain.KindEmailAlreadyRegistered, "that email is already registered")
	}

	sess, err := s.provider.CreateAccount(ctx, emailLower, password)
	if err != nil {
		return nil, mapProviderErr(err)
	}

	if err := s.provider.UpdateDisplayName(ctx, sess, name); err != nil {
		return nil, mapProviderErr(err)
	}

	if err := s.provider.SendVerificationEmail(ctx, sess); err != nil {
		return nil, mapProviderErr(err)
	}

	acct := &domain.Account{
		UID:           sess.UID,
		FullName:      name,
		Email:         emailLower,
		EmailLower:    emailLower,
		EmailVerified: false,
		Provider:      "password",
		CreatedAt:     s.now(),
	}
	if err := s.store.Set(ctx, acct); err != nil {
		return nil, domain.E(domain.KindUnknown, "could not save account record")
	}
	if err := s.store.PutIndex(ctx, domain.EmailKey(emailLower), sess.UID); err != nil {
		// index is a convenience lookup; the record itself is written
		log.Printf("[account] write email index for %s: %v", sess.UID, err)
	}

	return sess, nil
}

// VerifyOutcome names which flow a successful verification completed.
type VerifyOutcome string

const (
	OutcomeVerified     VerifyOutcome = "verified"
	OutcomeEmailChanged VerifyOutcome = "email_changed"
	OutcomeReactivated  VerifyOutcome = "reactivated"
)

// VerifyEmailPoll reloads provider-side verification state. Not verified
// yet is a soft, retryable failure. On success the matching sub-flow
// (plain signup, email change, reactivation) is finalized and the session
// is force-terminated: every verification requires a fresh login.
func (s *AccountService) VerifyEmailPoll(ctx context.Context, sess *identity.Session) (VerifyOutcome, error) {
	if err := s.reloadWithRetry(ctx, sess); err != nil {
		return "", mapProviderErr(err)
	}

	if !sess.EmailVerified {
		return "", domain.E(domain.KindNotVerifiedYet, "not verified yet")
	}

	outcome := OutcomeVerified
	verifiedAt := s.now()

	acct, err := s.store.Get(ctx, sess.UID)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.E(domain.KindUnknown, "could not load account record")
	}

	switch {
	case acct != nil && acct.PendingEmailChange() && *acct.PendingEmailLower == domain.NormalizeEmail(sess.Email):
		if err := s.finalizeEmailChange(ctx, acct, sess, verifiedAt); err != nil {
			return "", err
		}
		outcome = OutcomeEmailChanged

	case acct != nil && acct.PendingEmailChange():
		// The old address can still read as verified while the new one is
		// unconfirmed. The change only completes when the provider's email
		// equals the pending one.
		return "", domain.E(domain.KindNotVerifiedYet, "new email not confirmed yet")

	case acct != nil && (acct.Disabled || acct.ReactivationPending):
		err := s.store.Update(ctx, sess.UID, map[string]any{
			"disabled":             false,
			"reactivation_pending": false,
			"email_verified":       true,
			"verified_at":          verifiedAt,
			"reactivated_at":       verifiedAt,
		})
		if err != nil {
			return "", domain.E(domain.KindUnknown, "could not reactivate account")
		}
		outcome = OutcomeReactivated

	case acct != nil:
		err := s.store.Update(ctx, sess.UID, map[string]any{
			"email_verified": true,
			"verified_at":    verifiedAt,
		})
		if err != nil {
			return "", domain.E(domain.KindUnknown, "could not mark account verified")
		}
	}

	if err := s.provider.SignOut(ctx, sess); err != nil {
		log.Printf("[account] sign out after verification for %s: %v", sess.UID, err)
	}
	return outcome, nil
}

func (s *AccountService) finalizeEmailChange(ctx context.Context, acct *domain.Account, sess *identity.Session, at time.Time) error {
	newLower := domain.NormalizeEmail(sess.Email)
	oldKey := domain.EmailKey(acct.EmailLower)

	err := s.store.Update(ctx, sess.UID, map[string]any{
		"email":               newLower,
		"email_lower":         newLower,
		"email_verified":      true,
		"verified_at":         at,
		"pending_email":       nil,
		"pending_email_lower": nil,
		"email_changed_at":    at,
	})
	if err != nil {
		return domain.E(domain.KindUnknown, "could not finalize email change")
	}

	if err := s.store.PutIndex(ctx, domain.EmailKey(newLower), sess.UID); err != nil {
		log.Printf("[account] reindex new email for %s: %v", sess.UID, err)
	}
	if err := s.store.DeleteIndex(ctx, oldKey); err != nil {
		log.Printf("[account] drop old email index for %s: %v", sess.UID, err)
	}
	return nil
}

// ResendVerification resends the email for whichever sub-flow is active:
// an in-progress email change resends to the new address, reactivation
// restamps reactivation_email_sent_at, otherwise the standard verification
// email goes out again. A requires-recent-login answer forces sign-out.
func (s *AccountService) ResendVerification(ctx context.Context, sess *identity.Session) error {
	acct, err := s.store.Get(ctx, sess.UID)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.E(domain.KindUnknown, "could not load account record")
	}

	switch {
	case acct != nil && acct.PendingEmailChange():
		err = s.provider.SendVerificationEmailForNewAddress(ctx, sess, *acct.PendingEmail)

	case acct != nil && acct.ReactivationPending:
		err = s.provider.SendVerificationEmail(ctx, sess)
		if err == nil {
			if uerr := s.store.Update(ctx, sess.UID, map[string]any{"reactivation_email_sent_at": s.now()}); uerr != nil {
				log.Printf("[account] stamp reactivation email for %s: %v", sess.UID, uerr)
			}
		}

	default:
		err = s.provider.SendVerificationEmail(ctx, sess)
	}

	if err != nil {
		mapped := mapProviderErr(err)
		if domain.IsKind(mapped, domain.KindRequiresRecentLogin) {
			if serr := s.provider.SignOut(ctx, sess); serr != nil {
				log.Printf("[account] sign out after stale session for %s: %v", sess.UID, serr)
			}
		}
		return mapped
	}
	return nil
}

// LoginResult carries the session plus the disabled-account flag. Disabled
// is not an error: the caller must offer reactivate-or-cancel, and the
// session stays alive until one of Reactivate or CancelLogin resolves it.
type LoginResult struct {
	Session  *identity.Session
	Disabled bool
}

// Login validates both fields locally before any network call, then signs
// in. Unverified accounts are signed straight back out.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	emailLower := domain.NormalizeEmail(email)
	if emailLower == "" {
		return nil, domain.FieldError("email", "email is required")
	}
	if !domain.IsValidEmail(emailLower) {
		return nil, domain.FieldError("email", "enter a valid email address")
	}
	if password == "" {
		return nil, domain.FieldError("password", "password is required")
	}

	sess, err := s.provider.SignIn(ctx, emailLower, password)
	if err != nil {
		return nil, mapProviderErr(err)
	}

	return s.completeLogin(ctx, sess)
}

// LoginWithFederatedToken exchanges a federated (Google) identity token for
// a session. First-time sign-ins create the account record pre-verified;
// repeat sign-ins refresh profile fields and last_login_at.
func (s *AccountService) LoginWithFederatedToken(ctx context.Context, idToken string) (*LoginResult, error) {
	if idToken == "" {
		return nil, domain.FieldError("idToken", "missing identity token")
	}

	sess, err := s.provider.SignInWithFederatedToken(ctx, idToken)
	if err != nil {
		return nil, mapProviderErr(err)
	}

	emailLower := domain.NormalizeEmail(sess.Email)
	acct, err := s.store.Get(ctx, sess.UID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		acct = &domain.Account{
			UID:           sess.UID,
			FullName:      domain.FormatName(sess.DisplayName),
			Email:         emailLower,
			EmailLower:    emailLower,
			EmailVerified: true, // federated identities arrive pre-verified
			Provider:      "google",
			CreatedAt:     s.now(),
		}
		if serr := s.store.Set(ctx, acct); serr != nil {
			return nil, domain.E(domain.KindUnknown, "could not save account record")
		}
		if ierr := s.store.PutIndex(ctx, domain.EmailKey(emailLower), sess.UID); ierr != nil {
			log.Printf("[account] write email index for %s: %v", sess.UID, ierr)
		}
	case err != nil:
		return nil, domain.E(domain.KindUnknown, "could not load account record")
	default:
		patch := map[string]any{"last_login_at": s.now()}
		if sess.DisplayName != "" {
			patch["full_name"] = domain.FormatName(sess.DisplayName)
		}
		if uerr := s.store.Update(ctx, sess.UID, patch); uerr != nil {
			log.Printf("[account] refresh profile for %s: %v", sess.UID, uerr)
		}
	}

	return s.finishLoginGate(ctx, sess)
}

// completeLogin runs the post-sign-in gates shared by password logins:
// verification check, pending-email finalization, disabled check.
func (s *AccountService) completeLogin(ctx context.Context, sess *identity.Session) (*LoginResult, error) {
	// Refresh provider state; best-effort, the sign-in response may be stale.
	if err := s.provider.ReloadSession(ctx, sess); err != nil {
		log.Printf("[account] reload after sign-in for %s: %v", sess.UID, err)
	}

	if !sess.EmailVerified {
		if err := s.provider.SignOut(ctx, sess); err != nil {
			log.Printf("[account] sign out unverified %s: %v", sess.UID, err)
		}
		return nil, domain.E(domain.KindEmailNotVerified, "please verify your email first")
	}

	return s.finishLoginGate(ctx, sess)
}

func (s *AccountService) finishLoginGate(ctx context.Context, sess *identity.Session) (*LoginResult, error) {
	s.finalizePendingEmailIfMatched(ctx, sess)

	acct, err := s.store.Get(ctx, sess.UID)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		// Record store unreachable: let the login through, the record is
		// not the source of truth for the session itself.
		log.Printf("[account] disabled check for %s: %v", sess.UID, err)
		return &LoginResult{Session: sess}, nil
	}

	if acct != nil && acct.Disabled {
		return &LoginResult{Session: sess, Disabled: true}, nil
	}

	if acct != nil {
		if uerr := s.store.Update(ctx, sess.UID, map[string]any{"last_login_at": s.now()}); uerr != nil {
			log.Printf("[account] stamp last login for %s: %v", sess.UID, uerr)
		}
	}
	return &LoginResult{Session: sess}, nil
}

// finalizePendingEmailIfMatched completes an email change when the
// provider's current address already equals the stored pending one (the
// user confirmed the link outside the app). Best-effort.
func (s *AccountService) finalizePendingEmailIfMatched(ctx context.Context, sess *identity.Session) {
	acct, err := s.store.Get(ctx, sess.UID)
	if err != nil || acct == nil || !acct.PendingEmailChange() {
		return
	}
	if *acct.PendingEmailLower != domain.NormalizeEmail(sess.Email) {
		return
	}
	if err := s.finalizeEmailChange(ctx, acct, sess, s.now()); err != nil {
		log.Printf("[account] finalize pending email for %s: %v", sess.UID, err)
	}
}

// Reactivate begins the reactivation flow for a disabled account: resend
// verification, mark the record, then force logout until the email is
// confirmed through VerifyEmailPoll.
func (s *AccountService) Reactivate(ctx context.Context, sess *identity.Session) error {
	if err := s.provider.ReloadSession(ctx, sess); err != nil {
		log.Printf("[account] reload before reactivation for %s: %v", sess.UID, err)
	}

	if err := s.provider.SendVerificationEmail(ctx, sess); err != nil {
		return mapProviderErr(err)
	}

	err := s.store.Update(ctx, sess.UID, map[string]any{
		"reactivation_pending":       true,
		"reactivation_email_sent_at": s.now(),
	})
	if err != nil {
		return domain.E(domain.KindUnknown, "could not mark account for reactivation")
	}

	if err := s.provider.SignOut(ctx, sess); err != nil {
		log.Printf("[account] sign out pending reactivation for %s: %v", sess.UID, err)
	}
	return nil
}

// CancelLogin resolves the disabled-account choice by logging out.
func (s *AccountService) CancelLogin(ctx context.Context, sess *identity.Session) error {
	if err := s.provider.SignOut(ctx, sess); err != nil {
		return mapProviderErr(err)
	}
	return nil
}

// ChangeEmail starts a verify-before-update email change. Requires an
// authenticated, already-verified session; the record's emailVerified drops
// to false until the new address is confirmed.
func (s *AccountService) ChangeEmail(ctx context.Context, sess *identity.Session, newEmail string) error {
	newLower := domain.NormalizeEmail(newEmail)
	if !domain.IsValidEmail(newLower) {
		return domain.FieldError("email", "enter a valid email address")
	}
	if newLower == domain.NormalizeEmail(sess.Email) {
		return domain.FieldError("email", "that email is already your current email")
	}

	if err := s.provider.ReloadSession(ctx, sess); err != nil {
		return mapProviderErr(err)
	}
	if !sess.EmailVerified {
		return domain.E(domain.KindEmailNotVerified, "verify your current email before changing it")
	}

	if uid, err := s.store.FindByEmail(ctx, newLower); err != nil {
		log.Printf("[account] email-change uniqueness check: %v", err)
	} else if uid != "" && uid != sess.UID {
		return domain.E(domain.KindEmailAlreadyRegistered, "that email is already registered")
	}

	if err := s.provider.SendVerificationEmailForNewAddress(ctx, sess, newLower); err != nil {
		return mapProviderErr(err)
	}

	err := s.store.Update(ctx, sess.UID, map[string]any{
		"pending_email":       newLower,
		"pending_email_lower": newLower,
		"email_verified":      false,
		"verified_at":         nil,
	})
	if err != nil {
		return domain.E(domain.KindUnknown, "could not record pending email change")
	}
	return nil
}

// ChangePassword updates the password after local strength and
// confirmation checks. RequiresRecentLogin passes through so the caller
// can run the re-authentication detour and retry.
func (s *AccountService) ChangePassword(ctx context.Context, sess *identity.Session, newPassword, confirm string) error {
	if !domain.IsStrongPassword(newPassword) {
		return domain.FieldError("password", "password must be 8+ chars and include uppercase, lowercase, and a number")
	}
	if newPassword != confirm {
		return domain.FieldError("confirm", "passwords do not match")
	}

	if err := s.provider.UpdatePassword(ctx, sess, newPassword); err != nil {
		return mapProviderErr(err)
	}
	return nil
}

// Reauthenticate re-proves the session's password; used as the gate before
// profile edits and before retrying operations that demanded a recent
// login.
func (s *AccountService) Reauthenticate(ctx context.Context, sess *identity.Session, password string) error {
	if password == "" {
		return domain.FieldError("password", "password is required")
	}
	if err := s.provider.Reauthenticate(ctx, sess, password); err != nil {
		return mapProviderErr(err)
	}
	return nil
}

// UpdateFullName formats and saves the display name on both the provider
// and the record.
func (s *AccountService) UpdateFullName(ctx context.Context, sess *identity.Session, fullName string) error {
	name := domain.FormatName(fullName)
	if len([]rune(name)) < domain.MinFullNameLen {
		return domain.FieldError("fullName", "full name must be at least 8 characters")
	}

	if err := s.provider.UpdateDisplayName(ctx, sess, name); err != nil {
		return mapProviderErr(err)
	}
	if err := s.store.Update(ctx, sess.UID, map[string]any{"full_name": name}); err != nil {
		return domain.E(domain.KindUnknown, "could not save name")
	}
	return nil
}

// DisableAccount marks the record disabled and force-logs-out. Idempotent.
func (s *AccountService) DisableAccount(ctx context.Context, sess *identity.Session) error {
	err := s.store.Update(ctx, sess.UID, map[string]any{"disabled": true})
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.E(domain.KindUnknown, "could not disable account")
	}
	if err := s.provider.SignOut(ctx, sess); err != nil {
		return mapProviderErr(err)
	}
	return nil
}

// RequestPasswordReset asks the provider to send a reset link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	emailLower := domain.NormalizeEmail(email)
	if !domain.IsValidEmail(emailLower) {
		return domain.FieldError("email", "enter a valid email address")
	}
	if err := s.provider.SendPasswordResetEmail(ctx, emailLower); err != nil {
		return mapProviderErr(err)
	}
	return nil
}

// reloadWithRetry attempts the reload, and on failure retries exactly once
// after a fixed short delay before surfacing the error.
func (s *AccountService) reloadWithRetry(ctx context.Context, sess *identity.Session) error {
	err := s.provider.ReloadSession(ctx, sess)
	if err == nil {
		return nil
	}

	select {
	case <-time.After(s.reloadRetryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.provider.ReloadSession(ctx, sess)
}
