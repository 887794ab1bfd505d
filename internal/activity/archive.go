package activity

import (
	"context"
	"time"

	"github.com/edvin/maildns/internal/verify"
)

// ReportStore persists verification reports.
type ReportStore interface {
	Store(ctx context.Context, domainID string, at time.Time, report any) (string, error)
}

// Archive contains the activity that archives verification reports.
type Archive struct {
	store ReportStore
}

// NewArchive creates a new Archive activity struct. A nil store disables archiving.
func NewArchive(store ReportStore) *Archive {
	return &Archive{store: store}
}

// ArchiveVerificationReportParams holds parameters for ArchiveVerificationReport.
type ArchiveVerificationReportParams struct {
	DomainID  string          `json:"domain_id"`
	CheckedAt time.Time       `json:"checked_at"`
	Expected  verify.Expected `json:"expected"`
	Report    verify.Report   `json:"report"`
	Flags     verify.Flags    `json:"flags"`
}

// ArchiveVerificationReport stores the report and returns its object key.
func (a *Archive) ArchiveVerificationReport(ctx context.Context, params ArchiveVerificationReportParams) (string, error) {
	if a.store == nil {
		return "", nil
	}
	return a.store.Store(ctx, params.DomainID, params.CheckedAt, params)
}
