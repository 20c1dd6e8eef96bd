package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"complianceapi/internal/model"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ExpiringSoon(ctx context.Context, rec model.DocumentRecord, typ model.DocumentType) {
	m.Called(ctx, rec, typ)
}
