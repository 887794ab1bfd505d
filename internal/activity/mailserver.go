package activity

import (
	"context"
	"errors"
	"net/http"

	"go.temporal.io/sdk/temporal"

	"github.com/edvin/maildns/internal/mailserver"
)

// DNSRefresher is the mail server control plane call used after a change.
type DNSRefresher interface {
	RefreshDomainDNS(ctx context.Context, externalID, mailHost string) error
}

// MailServer contains activities that talk to the mail server control plane.
type MailServer struct {
	client DNSRefresher
}

// NewMailServer creates a new MailServer activity struct.
func NewMailServer(client DNSRefresher) *MailServer {
	return &MailServer{client: client}
}

// RefreshMailServerDNSParams holds parameters for RefreshMailServerDNS.
type RefreshMailServerDNSParams struct {
	MailServerID string `json:"mail_server_id"`
	MailHost     string `json:"mail_host"`
}

// RefreshMailServerDNS asks the mail server to re-read the domain's DNS.
// Client errors are not retried.
func (a *MailServer) RefreshMailServerDNS(ctx context.Context, params RefreshMailServerDNSParams) error {
	err := a.client.RefreshDomainDNS(ctx, params.MailServerID, params.MailHost)
	var statusErr *mailserver.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
		statusErr.StatusCode != http.StatusTooManyRequests {
		return temporal.NewNonRetryableApplicationError(statusErr.Error(), "CLIENT_ERROR", err)
	}
	return err
}
