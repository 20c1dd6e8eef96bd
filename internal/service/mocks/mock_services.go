package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"complianceapi/internal/model"
	"complianceapi/internal/service"
)

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, in service.SubmitInput) (*model.DocumentRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockSubmissionService) Get(ctx context.Context, id string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockSubmissionService) History(ctx context.Context, recordID string) (*service.HistoryResult, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryResult), args.Error(1)
}

func (m *MockSubmissionService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Approve(ctx context.Context, recordID, reviewerID, notes string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, recordID, reviewerID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockReviewService) Reject(ctx context.Context, recordID, reviewerID, reason string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, recordID, reviewerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

type MockComplianceService struct {
	mock.Mock
}

func (m *MockComplianceService) Summarize(ctx context.Context, ownerID string) (*model.ComplianceSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComplianceSummary), args.Error(1)
}

func (m *MockComplianceService) SummarizeFleet(ctx context.Context, ownerIDs []string) ([]model.ComplianceSummary, error) {
	args := m.Called(ctx, ownerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ComplianceSummary), args.Error(1)
}
