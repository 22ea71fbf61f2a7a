package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/transactions-backend/internal/domain"
)

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func TestListTransactions_Limits(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		expectedLimit int
	}{
		{name: "Default when zero", limit: 0, expectedLimit: DefaultLimit},
		{name: "Default when negative", limit: -3, expectedLimit: DefaultLimit},
		{name: "Explicit limit kept", limit: 10, expectedLimit: 10},
		{name: "Capped at maximum", limit: 10000, expectedLimit: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mockRepo := new(MockTransactionRepository)
			service := NewService(mockRepo)

			filter := domain.TransactionFilter{Bank: "monzo"}
			page := []*domain.Transaction{{ID: "a"}, {ID: "b"}}
			mockRepo.On("List", ctx, filter, tt.expectedLimit, 20).Return(page, nil)
			mockRepo.On("Count", ctx, filter).Return(22, nil)

			result, err := service.ListTransactions(ctx, Input{Bank: "monzo", Limit: tt.limit, Offset: 20})

			require.NoError(t, err)
			assert.Equal(t, page, result.Transactions)
			assert.Equal(t, 22, result.Total)
			assert.Equal(t, tt.expectedLimit, result.Limit)
			assert.Equal(t, 20, result.Offset)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestListTransactions_NegativeOffset(t *testing.T) {
	mockRepo := new(MockTransactionRepository)
	service := NewService(mockRepo)

	result, err := service.ListTransactions(context.Background(), Input{Offset: -1})

	assert.Nil(t, result)
	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "offset", validationErr.Field)
	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListTransactions_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTransactionRepository)
	service := NewService(mockRepo)

	dbErr := errors.New("connection reset")
	filter := domain.TransactionFilter{AccountID: "acc-1"}
	mockRepo.On("List", ctx, filter, DefaultLimit, 0).Return(nil, dbErr)

	result, err := service.ListTransactions(ctx, Input{AccountID: "acc-1"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
	mockRepo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}
