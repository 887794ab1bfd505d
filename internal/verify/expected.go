package verify

import (
	"strings"

	"github.com/edvin/maildns/internal/model"
)

// Settings holds the naming conventions shared by every customer domain.
type Settings struct {
	// ChallengePrefix is the label under which the ownership token is published.
	ChallengePrefix string
	// ReturnPathPrefix is the label of the Return-Path CNAME.
	ReturnPathPrefix string
	// ReturnPathHostPrefix and SPFHostPrefix are prepended to the mail host to
	// form the Return-Path target and the SPF include target.
	ReturnPathHostPrefix string
	SPFHostPrefix        string
	MXPriority           uint16
}

// DefaultSettings returns the conventions used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ChallengePrefix:      "_mail-verification",
		ReturnPathPrefix:     "psrp",
		ReturnPathHostPrefix: "rp",
		SPFHostPrefix:        "_spf",
		MXPriority:           1,
	}
}

// Expected is the DNS configuration a domain must publish.
type Expected struct {
	ChallengeName     string `json:"challenge_name"`
	VerificationToken string `json:"verification_token"`

	MXExchange string `json:"mx_exchange"`
	MXPriority uint16 `json:"mx_priority"`

	SPFInclude string `json:"spf_include"`

	DKIMName  string `json:"dkim_name"`
	DKIMValue string `json:"dkim_value"`

	ReturnPathName   string `json:"return_path_name"`
	ReturnPathTarget string `json:"return_path_target"`

	DMARCName string `json:"dmarc_name"`
}

// ExpectedFor derives the expected records for a domain. mailHost is used
// when the domain row does not carry its own.
func ExpectedFor(d model.MailDomain, s Settings, mailHost string) Expected {
	host := strings.TrimSuffix(d.MailHost, ".")
	if host == "" {
		host = strings.TrimSuffix(mailHost, ".")
	}
	root := strings.TrimSuffix(d.DomainName, ".")

	return Expected{
		ChallengeName:     s.ChallengePrefix + "." + root,
		VerificationToken: d.VerificationToken,
		MXExchange:        host,
		MXPriority:        s.MXPriority,
		SPFInclude:        s.SPFHostPrefix + "." + host,
		DKIMName:          d.DKIMSelector + "._domainkey." + root,
		DKIMValue:         d.DKIMValue,
		ReturnPathName:    s.ReturnPathPrefix + "." + root,
		ReturnPathTarget:  s.ReturnPathHostPrefix + "." + host,
		DMARCName:         "_dmarc." + root,
	}
}
