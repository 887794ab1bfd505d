package workflow

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/edvin/maildns/internal/activity"
	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/verify"
)

// DomainCheckParams identifies the domain to check and why.
type DomainCheckParams struct {
	DomainID string `json:"domain_id"`
	Trigger  string `json:"trigger"`
}

// DomainCheckWorkflow runs one verification pass for a domain. When the
// persisted flags still match the published DNS it has no side effects.
// Otherwise the mail server is told to refresh, an alert is sent and the new
// flags are stored, in that order.
func DomainCheckWorkflow(ctx workflow.Context, params DomainCheckParams) error {
	ctx = jobActivityCtx(ctx)
	logger := workflow.GetLogger(ctx)
	started := workflow.GetInfo(ctx).WorkflowStartTime

	var domain model.MailDomain
	err := workflow.ExecuteActivity(ctx, "GetMailDomainByID", params.DomainID).Get(ctx, &domain)
	if isNotFound(err) {
		sendAlert(ctx, model.Alert{
			Severity: model.SeverityError,
			DomainID: params.DomainID,
			Message:  fmt.Sprintf("DNS check (%s) skipped: mail domain %s does not exist", params.Trigger, params.DomainID),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("get mail domain: %w", err)
	}

	var res activity.DNSCheckResult
	err = workflow.ExecuteActivity(ctx, "VerifyMailDomainDNS", domain).Get(ctx, &res)
	if err != nil {
		return fmt.Errorf("verify mail domain dns: %w", err)
	}

	stored := verify.StoredFlags(domain)
	next, changed := verify.Reconcile(stored, res.Report, res.Policy)
	if !changed {
		logger.Info("mail domain DNS unchanged", "domain", domain.DomainName, "trigger", params.Trigger)
		return nil
	}
	changes := strings.Join(next.Changes(stored), ", ")

	if domain.MailServerID == nil || *domain.MailServerID == "" {
		sendAlert(ctx, model.Alert{
			Severity:   model.SeverityError,
			DomainID:   domain.ID,
			DomainName: domain.DomainName,
			Message: fmt.Sprintf("DNS for %s changed (%s) but the domain has no mail server ID; state not saved",
				domain.DomainName, changes),
		})
		return nil
	}

	err = workflow.ExecuteActivity(ctx, "RefreshMailServerDNS", activity.RefreshMailServerDNSParams{
		MailServerID: *domain.MailServerID,
		MailHost:     res.Expected.MXExchange,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("refresh mail server dns: %w", err)
	}

	now := workflow.Now(ctx)
	sendAlert(ctx, model.Alert{
		Severity:   model.SeverityInfo,
		DomainID:   domain.ID,
		DomainName: domain.DomainName,
		Message: fmt.Sprintf("DNS for %s changed (%s); mail server refreshed after %s",
			domain.DomainName, changes, now.Sub(started).Round(time.Millisecond)),
	})

	err = workflow.ExecuteActivity(ctx, "UpdateMailDomainVerification", activity.UpdateMailDomainVerificationParams{
		ID:        domain.ID,
		Flags:     next,
		CheckedAt: now,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("update mail domain verification: %w", err)
	}

	var key string
	err = workflow.ExecuteActivity(ctx, "ArchiveVerificationReport", activity.ArchiveVerificationReportParams{
		DomainID:  domain.ID,
		CheckedAt: now,
		Expected:  res.Expected,
		Report:    res.Report,
		Flags:     next,
	}).Get(ctx, &key)
	if err != nil {
		logger.Warn("failed to archive verification report", "domain", domain.DomainName, "error", err)
	}

	logger.Info("mail domain DNS updated", "domain", domain.DomainName, "changes", changes, "report", key)
	return nil
}
