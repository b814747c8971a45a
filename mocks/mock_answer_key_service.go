package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"omrscan/internal/domain"
	"omrscan/internal/service"
)

// MockAnswerKeyService is a mock implementation of service.AnswerKeyService.
type MockAnswerKeyService struct {
	mock.Mock
}

func (m *MockAnswerKeyService) CreateFromImage(ctx context.Context, input service.AnswerKeyCreateInput) (*domain.AnswerKey, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnswerKey), args.Error(1)
}

func (m *MockAnswerKeyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnswerKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnswerKey), args.Error(1)
}

func (m *MockAnswerKeyService) List(ctx context.Context, offset, limit int) ([]domain.AnswerKey, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AnswerKey), args.Int(1), args.Error(2)
}

func (m *MockAnswerKeyService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
