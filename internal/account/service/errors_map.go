package service

import (
	"errors"

	"github.com/aquavolt-iot/aquavolt-backend/internal/account/domain"
	"github.com/aquavolt-iot/aquavolt-backend/internal/identity"
)

// mapProviderErr translates identity-provider condition codes into the
// account error taxonomy. Raw provider errors never cross this boundary.
func mapProviderErr(err error) error {
	if err == nil {
		return nil
	}

	var perr *identity.ProviderError
	if !errors.As(err, &perr) {
		return &domain.Error{Kind: domain.KindUnknown, Message: err.Error(), Err: err}
	}

	switch perr.Code {
	case identity.CodeEmailExists:
		return &domain.Error{Kind: domain.KindEmailAlreadyRegistered, Message: "that email is already registered", Err: err}
	case identity.CodeEmailNotFound, identity.CodeInvalidPassword, identity.CodeInvalidLoginCredential:
		return &domain.Error{Kind: domain.KindWrongPassword, Message: "invalid email or password", Err: err}
	case identity.CodeUserDisabled:
		return &domain.Error{Kind: domain.KindAccountDisabled, Message: "this account is disabled", Err: err}
	case identity.CodeTooManyAttempts:
		return &domain.Error{Kind: domain.KindTooManyRequests, Message: "too many attempts, try again later", Err: err}
	case identity.CodeCredentialTooOld, identity.CodeInvalidIDToken, identity.CodeTokenExpired:
		return &domain.Error{Kind: domain.KindRequiresRecentLogin, Message: "please confirm your password again", Err: err}
	case identity.CodeUserMismatch, identity.CodeUserNotFound:
		return &domain.Error{Kind: domain.KindUnknown, Message: "session error, please login again", Err: err}
	case identity.CodeNeedsConfirmation:
		return &domain.Error{Kind: domain.KindAccountExistsWithOther, Message: "an account already exists with a different sign-in method", Err: err}
	case identity.CodeNetworkError:
		return &domain.Error{Kind: domain.KindNetworkError, Message: "network error, check your connection", Err: err}
	default:
		return &domain.Error{Kind: domain.KindUnknown, Message: perr.Error(), Err: err}
	}
}
