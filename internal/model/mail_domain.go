package model

import "time"

// MailDomain is a customer domain that sends and receives mail through the
// platform mail server.
type MailDomain struct {
	ID                string `json:"id" db:"id"`
	DomainName        string `json:"domain_name" db:"domain_name"`
	VerificationToken string `json:"verification_token" db:"verification_token"`
	DKIMSelector      string `json:"dkim_selector" db:"dkim_selector"`
	DKIMValue         string `json:"dkim_value" db:"dkim_value"`
	MailHost          string `json:"mail_host" db:"mail_host"`
	// MailServerID identifies the domain in the mail server control plane.
	MailServerID *string `json:"mail_server_id,omitempty" db:"mail_server_id"`
	Disabled     bool    `json:"disabled" db:"disabled"`

	// Last known verification outcome. VerifiedAt stands in for the
	// ownership check.
	VerifiedAt      *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	MXValid         bool       `json:"mx_valid" db:"mx_valid"`
	SPFValid        bool       `json:"spf_valid" db:"spf_valid"`
	DKIMValid       bool       `json:"dkim_valid" db:"dkim_valid"`
	ReturnPathValid bool       `json:"return_path_valid" db:"return_path_valid"`
	DNSCheckedAt    *time.Time `json:"dns_checked_at,omitempty" db:"dns_checked_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Domain check triggers.
const (
	TriggerImmediate = "immediate"
	TriggerSweep     = "sweep"
)
