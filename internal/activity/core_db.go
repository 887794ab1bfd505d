package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.temporal.io/sdk/temporal"

	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/verify"
)

// ErrTypeNotFound is the application error type returned when a row is gone.
const ErrTypeNotFound = "NOT_FOUND"

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CoreDB contains activities that read from and update the core database.
type CoreDB struct {
	db DB
}

// NewCoreDB creates a new CoreDB activity struct.
func NewCoreDB(db DB) *CoreDB {
	return &CoreDB{db: db}
}

const mailDomainColumns = `id, domain_name, verification_token, dkim_selector, dkim_value, mail_host,
	mail_server_id, disabled, verified_at, mx_valid, spf_valid, dkim_valid, return_path_valid,
	dns_checked_at, created_at, updated_at`

// ScanMailDomain scans a row selected with mailDomainColumns.
func ScanMailDomain(row pgx.Row, d *model.MailDomain) error {
	return row.Scan(&d.ID, &d.DomainName, &d.VerificationToken, &d.DKIMSelector, &d.DKIMValue, &d.MailHost,
		&d.MailServerID, &d.Disabled, &d.VerifiedAt, &d.MXValid, &d.SPFValid, &d.DKIMValid, &d.ReturnPathValid,
		&d.DNSCheckedAt, &d.CreatedAt, &d.UpdatedAt)
}

// GetMailDomainByID retrieves a mail domain by its ID. A missing row is a
// non-retryable NOT_FOUND application error.
func (a *CoreDB) GetMailDomainByID(ctx context.Context, id string) (*model.MailDomain, error) {
	var d model.MailDomain
	err := ScanMailDomain(a.db.QueryRow(ctx,
		`SELECT `+mailDomainColumns+` FROM mail_domains WHERE id = $1`, id,
	), &d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("mail domain %s not found", id), ErrTypeNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get mail domain by id: %w", err)
	}
	return &d, nil
}

// ListSweepMailDomainIDs returns the IDs of every domain that takes part in
// the periodic sweep. Disabled domains are excluded.
func (a *CoreDB) ListSweepMailDomainIDs(ctx context.Context) ([]string, error) {
	rows, err := a.db.Query(ctx,
		`SELECT id FROM mail_domains WHERE disabled = false ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sweep mail domains: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mail domain id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mail domain ids: %w", err)
	}
	return ids, nil
}

// UpdateMailDomainVerificationParams holds the flags to persist.
type UpdateMailDomainVerificationParams struct {
	ID        string       `json:"id"`
	Flags     verify.Flags `json:"flags"`
	CheckedAt time.Time    `json:"checked_at"`
}

// UpdateMailDomainVerification persists the five verification flags. The
// first successful ownership check keeps its original timestamp.
func (a *CoreDB) UpdateMailDomainVerification(ctx context.Context, params UpdateMailDomainVerificationParams) error {
	tag, err := a.db.Exec(ctx,
		`UPDATE mail_domains SET
			verified_at = CASE WHEN $2 THEN COALESCE(verified_at, $7) ELSE NULL END,
			mx_valid = $3, spf_valid = $4, dkim_valid = $5, return_path_valid = $6,
			dns_checked_at = $7, updated_at = now()
		 WHERE id = $1`,
		params.ID, params.Flags.Ownership, params.Flags.MX, params.Flags.SPF, params.Flags.DKIM,
		params.Flags.ReturnPath, params.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("update mail domain verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("mail domain %s not found", params.ID), ErrTypeNotFound, nil)
	}
	return nil
}
