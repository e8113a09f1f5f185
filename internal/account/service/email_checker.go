package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aquavolt-iot/aquavolt-backend/internal/account/domain"
)

// ErrCheckSuperseded means the same client issued a newer check while this
// one was in flight; its result must be discarded, not applied.
var ErrCheckSuperseded = errors.New("email check superseded")

// EmailChecker runs the debounced is-this-email-taken lookup used while
// the user types on the signup form. Each Check gets a monotonically
// increasing token scoped to the calling client; a response is applied
// only if its token is still that client's latest, so a slow stale lookup
// can never overwrite a newer result. Checks from different clients never
// supersede each other.
type EmailChecker struct {
	lookup   func(ctx context.Context, emailLower string) (string, error)
	debounce time.Duration

	mu     sync.Mutex
	latest map[string]uint64 // client key -> newest token
}

func NewEmailChecker(store AccountStore, debounce time.Duration) *EmailChecker {
	return &EmailChecker{
		lookup: func(ctx context.Context, emailLower string) (string, error) {
			return store.LookupIndex(ctx, domain.EmailKey(emailLower))
		},
		debounce: debounce,
		latest:   make(map[string]uint64),
	}
}

// Check reports whether the email is already registered. clientKey names
// the typing session issuing the check. Returns ErrCheckSuperseded when
// the same client issued a newer Check before this one resolved.
func (c *EmailChecker) Check(ctx context.Context, clientKey, email string) (bool, error) {
	emailLower := domain.NormalizeEmail(email)
	if !domain.IsValidEmail(emailLower) {
		return false, domain.FieldError("email", "enter a valid email address")
	}

	c.mu.Lock()
	if c.latest == nil {
		c.latest = make(map[string]uint64)
	}
	c.latest[clientKey]++
	token := c.latest[clientKey]
	c.mu.Unlock()

	if c.debounce > 0 {
		select {
		case <-time.After(c.debounce):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if c.superseded(clientKey, token) {
		return false, ErrCheckSuperseded
	}

	uid, err := c.lookup(ctx, emailLower)

	if c.superseded(clientKey, token) {
		return false, ErrCheckSuperseded
	}
	if err != nil {
		return false, domain.E(domain.KindNetworkError, "could not check email")
	}
	return uid != "", nil
}

func (c *EmailChecker) superseded(clientKey string, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token != c.latest[clientKey]
}
