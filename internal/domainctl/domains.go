package domainctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FindDomainByName pages through the domain list until name is found.
func (c *Client) FindDomainByName(name string) (*Domain, error) {
	name = normalizeName(name)
	cursor := ""
	for {
		path := "/domains?limit=200"
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}
		resp, err := c.Get(path)
		if err != nil {
			return nil, err
		}
		items, next, err := resp.Items()
		if err != nil {
			return nil, err
		}
		var domains []Domain
		if err := json.Unmarshal(items, &domains); err != nil {
			return nil, fmt.Errorf("parse domains: %w", err)
		}
		for i := range domains {
			if domains[i].DomainName == name {
				return &domains[i], nil
			}
		}
		if next == "" {
			return nil, fmt.Errorf("domain %q not found", name)
		}
		cursor = next
	}
}

// CreateDomain registers def. An existing domain with the same name is
// returned as is, with created false.
func (c *Client) CreateDomain(def DomainDef) (d *Domain, created bool, err error) {
	body := map[string]any{
		"domain_name": normalizeName(def.Name),
		"dkim_value":  def.DKIMValue,
	}
	if def.DKIMSelector != "" {
		body["dkim_selector"] = def.DKIMSelector
	}
	if def.MailHost != "" {
		body["mail_host"] = def.MailHost
	}
	if def.MailServerID != "" {
		body["mail_server_id"] = def.MailServerID
	}

	resp, err := c.Post("/domains", body)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		d, err := c.FindDomainByName(def.Name)
		return d, false, err
	}
	if err != nil {
		return nil, false, err
	}

	var out Domain
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, false, fmt.Errorf("parse created domain: %w", err)
	}
	return &out, true, nil
}

// SetMailServerID attaches the domain to its mail server record.
func (c *Client) SetMailServerID(id, mailServerID string) error {
	_, err := c.Patch("/domains/"+url.PathEscape(id), map[string]any{"mail_server_id": mailServerID})
	return err
}

// CheckDomain enqueues an immediate check and returns the run ID.
func (c *Client) CheckDomain(id string) (string, error) {
	resp, err := c.Post("/domains/"+url.PathEscape(id)+"/check", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("parse check response: %w", err)
	}
	return out.RunID, nil
}

// DomainDNS fetches the live DNS status of a domain.
func (c *Client) DomainDNS(id string) (*DNSStatus, error) {
	resp, err := c.Get("/domains/" + url.PathEscape(id) + "/dns")
	if err != nil {
		return nil, err
	}
	var out DNSStatus
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("parse dns status: %w", err)
	}
	return &out, nil
}

func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}
