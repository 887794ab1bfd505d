package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/maildns/internal/api/request"
	"github.com/edvin/maildns/internal/api/response"
	"github.com/edvin/maildns/internal/core"
	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/platform"
)

// MailDomainService is the subset of core.MailDomainService the handlers use.
type MailDomainService interface {
	Create(ctx context.Context, d *model.MailDomain) error
	GetByID(ctx context.Context, id string) (*model.MailDomain, error)
	List(ctx context.Context, limit int, cursor string) ([]model.MailDomain, bool, error)
	Update(ctx context.Context, id string, u core.MailDomainUpdate) (*model.MailDomain, error)
	EnqueueImmediateCheck(ctx context.Context, id string) (string, error)
	DNSStatus(ctx context.Context, id string) (*core.DNSStatus, error)
}

type MailDomain struct {
	svc MailDomainService
}

func NewMailDomain(svc MailDomainService) *MailDomain {
	return &MailDomain{svc: svc}
}

// CheckAccepted is returned when a check has been enqueued.
type CheckAccepted struct {
	DomainID string `json:"domain_id"`
	RunID    string `json:"run_id"`
}

// List returns a page of domains ordered by ID.
func (h *MailDomain) List(w http.ResponseWriter, r *http.Request) {
	pg, err := request.ParsePagination(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	domains, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(domains) > 0 {
		nextCursor = domains[len(domains)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, domains, nextCursor, hasMore)
}

// Create registers a domain and enqueues its first check. The ownership
// token is always generated here.
func (h *MailDomain) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMailDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteBadRequest(w, err)
		return
	}

	selector := req.DKIMSelector
	if selector == "" {
		selector = platform.NewDKIMSelector()
	}

	now := time.Now().UTC()
	d := &model.MailDomain{
		ID:                platform.NewID(),
		DomainName:        request.NormalizeDomain(req.DomainName),
		VerificationToken: platform.NewVerificationToken(),
		DKIMSelector:      selector,
		DKIMValue:         req.DKIMValue,
		MailHost:          request.NormalizeDomain(req.MailHost),
		MailServerID:      req.MailServerID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.svc.Create(r.Context(), d); err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, d)
}

func (h *MailDomain) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

func (h *MailDomain) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateMailDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteBadRequest(w, err)
		return
	}
	if req.Disabled == nil && req.MailServerID == nil {
		response.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	d, err := h.svc.Update(r.Context(), id, core.MailDomainUpdate{
		Disabled:     req.Disabled,
		MailServerID: req.MailServerID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

// Check enqueues an immediate check. Repeated requests while a check is
// running return the same run.
func (h *MailDomain) Check(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := h.svc.EnqueueImmediateCheck(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, CheckAccepted{DomainID: id, RunID: runID})
}

// DNS looks the domain's records up live and returns the per-category
// report along with the records the customer should publish.
func (h *MailDomain) DNS(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.svc.DNSStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, status)
}
