package prefs

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const onboardingKeyPrefix = "onboarding:" // onboarding:{uid}

// Repo stores small per-account flags. Currently just the one-time
// "has completed onboarding" marker.
type Repo struct {
	client *redis.Client
}

func NewRepo(client *redis.Client) *Repo {
	return &Repo{client: client}
}

// HasCompletedOnboarding is best-effort: lookup errors read as "not yet".
func (r *Repo) HasCompletedOnboarding(ctx context.Context, uid string) bool {
	v, err := r.client.Get(ctx, onboardingKeyPrefix+uid).Result()
	if err != nil {
		return false
	}
	return v == "1"
}

func (r *Repo) SetCompletedOnboarding(ctx context.Context, uid string) error {
	if err := r.client.Set(ctx, onboardingKeyPrefix+uid, "1", 0).Err(); err != nil {
		return fmt.Errorf("set onboarding flag: %w", err)
	}
	return nil
}

// ClearOnboarding resets the flag so the onboarding screens replay on next
// launch.
func (r *Repo) ClearOnboarding(ctx context.Context, uid string) error {
	if err := r.client.Del(ctx, onboardingKeyPrefix+uid).Err(); err != nil {
		return fmt.Errorf("clear onboarding flag: %w", err)
	}
	return nil
}
