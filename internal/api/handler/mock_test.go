package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/maildns/internal/core"
	"github.com/edvin/maildns/internal/model"
)

type mockMailDomainService struct {
	mock.Mock
}

func (m *mockMailDomainService) Create(ctx context.Context, d *model.MailDomain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockMailDomainService) GetByID(ctx context.Context, id string) (*model.MailDomain, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.MailDomain)
	return d, args.Error(1)
}

func (m *mockMailDomainService) List(ctx context.Context, limit int, cursor string) ([]model.MailDomain, bool, error) {
	args := m.Called(ctx, limit, cursor)
	domains, _ := args.Get(0).([]model.MailDomain)
	return domains, args.Bool(1), args.Error(2)
}

func (m *mockMailDomainService) Update(ctx context.Context, id string, u core.MailDomainUpdate) (*model.MailDomain, error) {
	args := m.Called(ctx, id, u)
	d, _ := args.Get(0).(*model.MailDomain)
	return d, args.Error(1)
}

func (m *mockMailDomainService) EnqueueImmediateCheck(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockMailDomainService) DNSStatus(ctx context.Context, id string) (*core.DNSStatus, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*core.DNSStatus)
	return s, args.Error(1)
}
