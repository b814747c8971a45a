package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"omrscan/internal/domain"
	"omrscan/internal/service"
)

// MockSheetService is a mock implementation of service.SheetService.
type MockSheetService struct {
	mock.Mock
}

func (m *MockSheetService) ProcessFull(ctx context.Context, input service.ProcessFullInput) (*domain.Sheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) ProcessFullByAnswerKey(ctx context.Context, input service.ProcessFullByKeyInput) (*domain.Sheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) ProcessRegion(ctx context.Context, input service.ProcessRegionInput) (*domain.Sheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) ProcessCropped(ctx context.Context, input service.ProcessCroppedInput) (*domain.Sheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) ProcessMultiCrop(ctx context.Context, input service.ProcessMultiCropInput) (*domain.Sheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) ExtractIdentity(ctx context.Context, input service.ExtractIdentityInput) (*service.IdentityResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IdentityResult), args.Error(1)
}

func (m *MockSheetService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockSheetService) List(ctx context.Context, offset, limit int) ([]domain.Sheet, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Sheet), args.Int(1), args.Error(2)
}

func (m *MockSheetService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
