package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/maildns/internal/activity"
	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/verify"
)

// MailDomainService manages mail domains and schedules their DNS checks.
type MailDomainService struct {
	db       DB
	tc       temporalclient.Client
	verifier *verify.Verifier
	settings verify.Settings
	mailHost string
}

func NewMailDomainService(db DB, tc temporalclient.Client, verifier *verify.Verifier, settings verify.Settings, mailHost string) *MailDomainService {
	return &MailDomainService{db: db, tc: tc, verifier: verifier, settings: settings, mailHost: mailHost}
}

const mailDomainColumns = `id, domain_name, verification_token, dkim_selector, dkim_value, mail_host,
	mail_server_id, disabled, verified_at, mx_valid, spf_valid, dkim_valid, return_path_valid,
	dns_checked_at, created_at, updated_at`

// Create inserts the domain and enqueues its first check. Once the row is
// written a failed enqueue is only logged: the next sweep checks the domain.
func (s *MailDomainService) Create(ctx context.Context, d *model.MailDomain) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO mail_domains (id, domain_name, verification_token, dkim_selector, dkim_value, mail_host,
			mail_server_id, disabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.DomainName, d.VerificationToken, d.DKIMSelector, d.DKIMValue, d.MailHost,
		d.MailServerID, d.Disabled, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mail domain %s: %w", d.DomainName, mapWriteError(err))
	}

	if _, err := enqueueCheck(ctx, s.tc, d.ID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("domain_id", d.ID).
			Str("domain", d.DomainName).
			Msg("initial DNS check not enqueued, leaving it to the sweep")
	}
	return nil
}

func (s *MailDomainService) GetByID(ctx context.Context, id string) (*model.MailDomain, error) {
	var d model.MailDomain
	err := activity.ScanMailDomain(s.db.QueryRow(ctx,
		`SELECT `+mailDomainColumns+` FROM mail_domains WHERE id = $1`, id,
	), &d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get mail domain %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get mail domain %s: %w", id, err)
	}
	return &d, nil
}

// List returns up to limit domains ordered by ID, starting after cursor.
func (s *MailDomainService) List(ctx context.Context, limit int, cursor string) ([]model.MailDomain, bool, error) {
	query := `SELECT ` + mailDomainColumns + ` FROM mail_domains`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` WHERE id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list mail domains: %w", err)
	}
	defer rows.Close()

	var domains []model.MailDomain
	for rows.Next() {
		var d model.MailDomain
		if err := activity.ScanMailDomain(rows, &d); err != nil {
			return nil, false, fmt.Errorf("scan mail domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate mail domains: %w", err)
	}

	hasMore := len(domains) > limit
	if hasMore {
		domains = domains[:limit]
	}
	return domains, hasMore, nil
}

// MailDomainUpdate holds the mutable fields of a domain. Nil fields are left as is.
type MailDomainUpdate struct {
	Disabled     *bool
	MailServerID *string
}

// Update changes the given fields. Re-enabling a domain or attaching it to a
// mail server enqueues a check.
func (s *MailDomainService) Update(ctx context.Context, id string, u MailDomainUpdate) (*model.MailDomain, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE mail_domains SET
			disabled = COALESCE($2, disabled),
			mail_server_id = COALESCE($3, mail_server_id),
			updated_at = now()
		 WHERE id = $1`,
		id, u.Disabled, u.MailServerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update mail domain %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("update mail domain %s: %w", id, ErrNotFound)
	}

	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Disabled && ((u.Disabled != nil && !*u.Disabled) || u.MailServerID != nil) {
		if _, err := enqueueCheck(ctx, s.tc, id); err != nil {
			return nil, fmt.Errorf("update mail domain %s: %w", id, err)
		}
	}
	return d, nil
}

// EnqueueImmediateCheck schedules a check of the domain now and returns the
// workflow run ID. Disabled domains can still be checked on request.
func (s *MailDomainService) EnqueueImmediateCheck(ctx context.Context, id string) (string, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return "", err
	}
	return enqueueCheck(ctx, s.tc, id)
}

// DNSStatus is a live view of a domain's published records.
type DNSStatus struct {
	Domain    model.MailDomain `json:"domain"`
	Expected  verify.Expected  `json:"expected"`
	Report    verify.Report    `json:"report"`
	Suggested []verify.Record  `json:"suggested"`
	CheckedAt time.Time        `json:"checked_at"`
}

// DNSStatus looks the domain's records up right away without persisting
// anything. Use EnqueueImmediateCheck to store the outcome.
func (s *MailDomainService) DNSStatus(ctx context.Context, id string) (*DNSStatus, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exp := verify.ExpectedFor(*d, s.settings, s.mailHost)
	report := s.verifier.Verify(ctx, d.DomainName, exp)
	return &DNSStatus{
		Domain:    *d,
		Expected:  exp,
		Report:    report,
		Suggested: verify.Suggested(d.DomainName, exp, &report),
		CheckedAt: time.Now().UTC(),
	}, nil
}
