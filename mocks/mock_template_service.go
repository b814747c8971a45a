package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"omrscan/internal/domain"
	"omrscan/internal/service"
)

// MockTemplateService is a mock implementation of service.TemplateService.
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, input service.TemplateCreateInput) (*domain.Template, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, offset, limit int) ([]domain.Template, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Template), args.Int(1), args.Error(2)
}

func (m *MockTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
