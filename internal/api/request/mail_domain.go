package request

// CreateMailDomain is the body of POST /domains. The ownership token and,
// when omitted, the DKIM selector are generated.
type CreateMailDomain struct {
	DomainName   string  `json:"domain_name" validate:"required,fqdn,registrable"`
	DKIMValue    string  `json:"dkim_value" validate:"required,base64"`
	DKIMSelector string  `json:"dkim_selector" validate:"omitempty,dkim_selector"`
	MailHost     string  `json:"mail_host" validate:"omitempty,fqdn"`
	MailServerID *string `json:"mail_server_id" validate:"omitempty,min=1,max=255"`
}

// UpdateMailDomain is the body of PATCH /domains/{id}.
type UpdateMailDomain struct {
	Disabled     *bool   `json:"disabled"`
	MailServerID *string `json:"mail_server_id" validate:"omitempty,min=1,max=255"`
}
