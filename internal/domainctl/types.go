package domainctl

import "time"

// SeedConfig is the YAML document read by "domainctl seed".
type SeedConfig struct {
	APIURL  string      `yaml:"api_url"`
	APIKey  string      `yaml:"api_key"`
	Domains []DomainDef `yaml:"domains"`
}

type DomainDef struct {
	Name         string `yaml:"name"`
	DKIMValue    string `yaml:"dkim_value"`
	DKIMSelector string `yaml:"dkim_selector"`
	MailHost     string `yaml:"mail_host"`
	MailServerID string `yaml:"mail_server_id"`
}

// Domain mirrors the fields of the API's mail domain resource that the CLI prints.
type Domain struct {
	ID                string     `json:"id"`
	DomainName        string     `json:"domain_name"`
	VerificationToken string     `json:"verification_token"`
	DKIMSelector      string     `json:"dkim_selector"`
	MailServerID      *string    `json:"mail_server_id,omitempty"`
	Disabled          bool       `json:"disabled"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	MXValid           bool       `json:"mx_valid"`
	SPFValid          bool       `json:"spf_valid"`
	DKIMValid         bool       `json:"dkim_valid"`
	ReturnPathValid   bool       `json:"return_path_valid"`
	DNSCheckedAt      *time.Time `json:"dns_checked_at,omitempty"`
}

type Record struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Valid    bool   `json:"valid"`
}

type DNSStatus struct {
	Domain    Domain    `json:"domain"`
	Suggested []Record  `json:"suggested"`
	CheckedAt time.Time `json:"checked_at"`
}
