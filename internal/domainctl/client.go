package domainctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edvin/maildns/internal/api/response"
)

// Client talks to the mail DNS admin API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// APIError is returned for responses with status 400 and above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Code is the API's machine-readable error code, e.g. "conflict".
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Post(path string, body any) (*Response, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *Client) Get(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *Client) Patch(path string, body any) (*Response, error) {
	return c.do(http.MethodPatch, path, body)
}

func (c *Client) do(method, path string, body any) (*Response, error) {
	url := c.BaseURL + "/api/v1" + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	r := &Response{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(respBody),
	}

	if resp.StatusCode >= 400 {
		var body response.Error
		msg := string(respBody)
		if json.Unmarshal(respBody, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return r, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Code: body.Code, Message: msg}
	}

	return r, nil
}

// Items extracts the "items" array and next cursor from a paginated API response.
func (r *Response) Items() (json.RawMessage, string, error) {
	var page struct {
		Items      json.RawMessage `json:"items"`
		NextCursor string          `json:"next_cursor"`
		HasMore    bool            `json:"has_more"`
	}
	if err := json.Unmarshal(r.Body, &page); err != nil {
		return nil, "", fmt.Errorf("parse paginated response: %w", err)
	}
	if !page.HasMore {
		page.NextCursor = ""
	}
	return page.Items, page.NextCursor, nil
}
