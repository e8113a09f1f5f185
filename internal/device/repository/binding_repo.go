package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquavolt-iot/aquavolt-backend/internal/device/domain"
)

// ErrInvalidConnectionType marks a rejected mode name, as opposed to a
// storage failure.
var ErrInvalidConnectionType = errors.New("invalid connection type")

const (
	bindingKeyPrefix = "device:" // device:{uid}
	anonymousUID     = "anonymous"
)

// BindingRepository stores the per-account device binding as a JSON blob
// in Redis. It is a convenience cache, not the source of truth for real
// device state: reads are best-effort and read errors surface as "no
// binding".
type BindingRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewBindingRepository(client *redis.Client) *BindingRepository {
	return &BindingRepository{
		client: client,
		now:    time.Now,
	}
}

func bindingKey(uid string) string {
	if uid == "" {
		uid = anonymousUID
	}
	return bindingKeyPrefix + uid
}

// Get returns the stored binding or nil. Never fails: storage errors are
// swallowed and treated as "none".
func (r *BindingRepository) Get(ctx context.Context, uid string) *domain.Binding {
	data, err := r.client.Get(ctx, bindingKey(uid)).Bytes()
	if err != nil {
		return nil
	}

	var b domain.Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return nil
	}
	return &b
}

// Save overwrites the stored binding wholesale.
func (r *BindingRepository) Save(ctx context.Context, uid string, b *domain.Binding) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal binding: %w", err)
	}
	if err := r.client.Set(ctx, bindingKey(uid), data, 0).Err(); err != nil {
		return fmt.Errorf("save binding: %w", err)
	}
	return nil
}

// Update deep-merges the patch into the current binding and returns the
// merged result. Map-valued fields merge key by key; scalars overwrite.
func (r *BindingRepository) Update(ctx context.Context, uid string, patch map[string]any) (*domain.Binding, error) {
	current := r.getMap(ctx, uid)
	merged := domain.DeepMerge(current, patch)

	b, err := r.saveMap(ctx, uid, merged)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SetConnectionType switches the binding between wifi and bluetooth mode,
// seeding defaults so the UI never renders blank fields. The inactive
// mode's sub-record is preserved.
func (r *BindingRepository) SetConnectionType(ctx context.Context, uid, connectionType string) (*domain.Binding, error) {
	if connectionType != domain.ConnectionWifi && connectionType != domain.ConnectionBluetooth {
		return nil, fmt.Errorf("%w %q", ErrInvalidConnectionType, connectionType)
	}

	current := r.getMap(ctx, uid)
	next := domain.ApplyConnectionType(current, connectionType, r.now().UnixMilli())

	b, err := r.saveMap(ctx, uid, next)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Clear deletes the binding entirely.
func (r *BindingRepository) Clear(ctx context.Context, uid string) error {
	if err := r.client.Del(ctx, bindingKey(uid)).Err(); err != nil {
		return fmt.Errorf("clear binding: %w", err)
	}
	return nil
}

// getMap reads the raw stored object, preserving fields the Binding struct
// does not model. Errors degrade to an empty record.
func (r *BindingRepository) getMap(ctx context.Context, uid string) map[string]any {
	data, err := r.client.Get(ctx, bindingKey(uid)).Bytes()
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func (r *BindingRepository) saveMap(ctx context.Context, uid string, m map[string]any) (*domain.Binding, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal binding: %w", err)
	}
	if err := r.client.Set(ctx, bindingKey(uid), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("save binding: %w", err)
	}

	var b domain.Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode merged binding: %w", err)
	}
	return &b, nil
}
