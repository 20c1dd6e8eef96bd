package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"complianceapi/internal/model"
	"complianceapi/internal/repository"
)

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	args := m.Called(ctx, rec, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) Supersede(ctx context.Context, currentID string, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	args := m.Called(ctx, currentID, rec, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) TransitionStatus(ctx context.Context, ch repository.StatusChange, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	args := m.Called(ctx, ch, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) FindCurrent(ctx context.Context, ownerID, typeID string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, ownerID, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) ListCurrentForOwner(ctx context.Context, ownerID string) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) ListVersions(ctx context.Context, ownerID, typeID string) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, ownerID, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) ListVerifiedExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockRecordRepository) ArchiveRecord(ctx context.Context, id string, version int, entry *model.AuditEntry) error {
	args := m.Called(ctx, id, version, entry)
	return args.Error(0)
}

func (m *MockRecordRepository) MarkExpiryNotified(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
