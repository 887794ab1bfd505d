// Package mailserver talks to the mail server control plane.
package mailserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned when the control plane answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client issues control plane calls authenticated with the admin token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client. Every call is bounded by timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RefreshDomainDNS tells the mail server to drop its cached DNS view of the
// domain identified by externalID, served from mailHost.
func (c *Client) RefreshDomainDNS(ctx context.Context, externalID, mailHost string) error {
	body, err := json.Marshal(map[string]string{"mail_host": mailHost})
	if err != nil {
		return fmt.Errorf("marshal refresh dns: %w", err)
	}

	u := fmt.Sprintf("%s/api/domains/%s/dns/refresh", c.baseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("refresh dns request: %w", err)
	}
	req.SetBasicAuth("admin", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh dns: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Op:         "refresh dns " + externalID,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	return nil
}
