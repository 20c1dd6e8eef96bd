package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"complianceapi/internal/model"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) ListByRecords(ctx context.Context, recordIDs []string) ([]model.AuditEntry, error) {
	args := m.Called(ctx, recordIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}
