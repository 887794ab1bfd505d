package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/maildns/internal/core"
	"github.com/edvin/maildns/internal/model"
)

type stubDomains struct {
	core.MailDomainService
	listed bool
}

func (s *stubDomains) List(ctx context.Context, limit int, cursor string) ([]model.MailDomain, bool, error) {
	s.listed = true
	return []model.MailDomain{}, false, nil
}

func newTestServer(checks map[string]ReadyCheck) (*Server, *stubDomains) {
	domains := &stubDomains{}
	return NewServer(zerolog.Nop(), domains, "secret", checks), domains
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	s, _ := newTestServer(map[string]ReadyCheck{
		"core_db":  func(context.Context) error { return nil },
		"temporal": func(context.Context) error { return errors.New("unavailable") },
	})
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["core_db"])
	assert.Equal(t, "unavailable", body["temporal"])
}

func TestAPIRequiresKey(t *testing.T) {
	s, domains := newTestServer(nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/domains", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, domains.listed)
}

func TestAPIListDomains(t *testing.T) {
	s, domains := newTestServer(nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/domains", nil)
	r.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, domains.listed)
}
