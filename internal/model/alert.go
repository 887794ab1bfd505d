package model

// Alert is a single notification emitted by a domain check.
type Alert struct {
	Severity   string `json:"severity"`
	DomainID   string `json:"domain_id"`
	DomainName string `json:"domain_name"`
	Message    string `json:"message"`
}
