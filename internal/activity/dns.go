package activity

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/edvin/maildns/internal/metrics"
	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/verify"
)

// DNS contains the activity that verifies a domain's published records.
type DNS struct {
	verifier *verify.Verifier
	settings verify.Settings
	mailHost string
	policy   verify.Policy
}

// NewDNS creates a new DNS activity struct.
func NewDNS(verifier *verify.Verifier, settings verify.Settings, mailHost string, policy verify.Policy) *DNS {
	return &DNS{verifier: verifier, settings: settings, mailHost: mailHost, policy: policy}
}

// DNSCheckResult is the outcome of VerifyMailDomainDNS. Policy is carried in
// the result so the workflow reconciles deterministically on replay.
type DNSCheckResult struct {
	Expected verify.Expected `json:"expected"`
	Report   verify.Report   `json:"report"`
	Policy   verify.Policy   `json:"policy"`
}

// VerifyMailDomainDNS looks up every category for the domain. DNS failures
// are part of the report and never fail the activity.
func (a *DNS) VerifyMailDomainDNS(ctx context.Context, domain model.MailDomain) (*DNSCheckResult, error) {
	exp := verify.ExpectedFor(domain, a.settings, a.mailHost)
	report := a.verifier.Verify(ctx, domain.DomainName, exp)

	if undetermined := report.Undetermined(); len(undetermined) > 0 {
		activity.GetLogger(ctx).Warn("transient DNS failures", "domain", domain.DomainName, "categories", undetermined)
	}
	metrics.DomainChecksTotal.WithLabelValues(outcome(report)).Inc()

	return &DNSCheckResult{Expected: exp, Report: report, Policy: a.policy}, nil
}

func outcome(r verify.Report) string {
	switch {
	case len(r.Undetermined()) > 0:
		return "undetermined"
	case r.Ownership.Valid && r.MX.Valid && r.SPF.Valid && r.DKIM.Valid && r.ReturnPath.Valid:
		return "valid"
	default:
		return "invalid"
	}
}
