package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquavolt-iot/aquavolt-backend/internal/account/domain"
)

// Schema:
//
//	accounts (
//	  uid text primary key,
//	  full_name text not null default '',
//	  email text not null,
//	  email_lower text not null,
//	  email_verified boolean not null default false,
//	  pending_email text,
//	  pending_email_lower text,
//	  disabled boolean not null default false,
//	  reactivation_pending boolean not null default false,
//	  provider text not null default 'password',
//	  created_at timestamptz not null default now(),
//	  last_login_at timestamptz,
//	  verified_at timestamptz,
//	  email_changed_at timestamptz,
//	  reactivated_at timestamptz,
//	  reactivation_email_sent_at timestamptz
//	)
//	create index accounts_email_lower_idx on accounts (email_lower);
//
//	email_index (
//	  email_key text primary key,
//	  uid text not null
//	)
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const accountColumns = `uid, full_name, email, email_lower, email_verified,
       pending_email, pending_email_lower, disabled, reactivation_pending, provider,
       created_at, last_login_at, verified_at, email_changed_at, reactivated_at,
       reactivation_email_sent_at`

func (r *Repo) Get(ctx context.Context, uid string) (*domain.Account, error) {
	q := `select ` + accountColumns + ` from accounts where uid = $1`

	var a domain.Account
	err := r.db.QueryRow(ctx, q, uid).Scan(
		&a.UID, &a.FullName, &a.Email, &a.EmailLower, &a.EmailVerified,
		&a.PendingEmail, &a.PendingEmailLower, &a.Disabled, &a.ReactivationPending, &a.Provider,
		&a.CreatedAt, &a.LastLoginAt, &a.VerifiedAt, &a.EmailChangedAt, &a.ReactivatedAt,
		&a.ReactivationEmailSentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// Set writes the record wholesale, replacing any existing row for the uid.
func (r *Repo) Set(ctx context.Context, a *domain.Account) error {
	const q = `
insert into accounts (uid, full_name, email, email_lower, email_verified,
                      pending_email, pending_email_lower, disabled, reactivation_pending, provider,
                      created_at, last_login_at, verified_at, email_changed_at, reactivated_at,
                      reactivation_email_sent_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
on conflict (uid) do update set
  full_name = excluded.full_name,
  email = excluded.email,
  email_lower = excluded.email_lower,
  email_verified = excluded.email_verified,
  pending_email = excluded.pending_email,
  pending_email_lower = excluded.pending_email_lower,
  disabled = excluded.disabled,
  reactivation_pending = excluded.reactivation_pending,
  provider = excluded.provider,
  created_at = excluded.created_at,
  last_login_at = excluded.last_login_at,
  verified_at = excluded.verified_at,
  email_changed_at = excluded.email_changed_at,
  reactivated_at = excluded.reactivated_at,
  reactivation_email_sent_at = excluded.reactivation_email_sent_at;
`
	_, err := r.db.Exec(ctx, q,
		a.UID, a.FullName, a.Email, a.EmailLower, a.EmailVerified,
		a.PendingEmail, a.PendingEmailLower, a.Disabled, a.ReactivationPending, a.Provider,
		a.CreatedAt, a.LastLoginAt, a.VerifiedAt, a.EmailChangedAt, a.ReactivatedAt,
		a.ReactivationEmailSentAt,
	)
	if err != nil {
		return fmt.Errorf("set account: %w", err)
	}
	return nil
}

// updatableColumns is the whitelist for partial updates. A nil patch value
// clears the column.
var updatableColumns = map[string]bool{
	"full_name":                  true,
	"email":                      true,
	"email_lower":                true,
	"email_verified":             true,
	"pending_email":              true,
	"pending_email_lower":        true,
	"disabled":                   true,
	"reactivation_pending":       true,
	"last_login_at":              true,
	"verified_at":                true,
	"email_changed_at":           true,
	"reactivated_at":             true,
	"reactivation_email_sent_at": true,
}

// Update merges the patch into the stored record, column by column.
func (r *Repo) Update(ctx context.Context, uid string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	args = append(args, uid)
	for col, val := range patch {
		if !updatableColumns[col] {
			return fmt.Errorf("update account: column %q not updatable", col)
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	q := fmt.Sprintf("update accounts set %s where uid = $1", strings.Join(sets, ", "))
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// FindByEmail locates an account by canonical lowercase email. Returns ""
// when no account matches.
func (r *Repo) FindByEmail(ctx context.Context, emailLower string) (string, error) {
	const q = `select uid from accounts where email_lower = $1 limit 1`

	var uid string
	err := r.db.QueryRow(ctx, q, emailLower).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find by email: %w", err)
	}
	return uid, nil
}

// LookupIndex resolves a sanitized email key to a uid via the uniqueness
// index. Best-effort: the identity provider remains the final authority.
func (r *Repo) LookupIndex(ctx context.Context, emailKey string) (string, error) {
	const q = `select uid from email_index where email_key = $1`

	var uid string
	err := r.db.QueryRow(ctx, q, emailKey).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup email index: %w", err)
	}
	return uid, nil
}

func (r *Repo) PutIndex(ctx context.Context, emailKey, uid string) error {
	const q = `
insert into email_index (email_key, uid)
values ($1, $2)
on conflict (email_key) do update set uid = excluded.uid;
`
	if _, err := r.db.Exec(ctx, q, emailKey, uid); err != nil {
		return fmt.Errorf("put email index: %w", err)
	}
	return nil
}

func (r *Repo) DeleteIndex(ctx context.Context, emailKey string) error {
	if _, err := r.db.Exec(ctx, `delete from email_index where email_key = $1`, emailKey); err != nil {
		return fmt.Errorf("delete email index: %w", err)
	}
	return nil
}

// PurgeOrphanedIndexEntries removes index rows whose uid has no account
// record, left behind when a signup failed between the provider call and
// the record write.
func (r *Repo) PurgeOrphanedIndexEntries(ctx context.Context) (int64, error) {
	const q = `
delete from email_index
where uid not in (select uid from accounts);
`
	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("purge email index: %w", err)
	}
	return tag.RowsAffected(), nil
}
