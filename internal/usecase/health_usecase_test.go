package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/usecase"
	"github.com/zots0127/onefile/internal/usecase/mocks"
)

func TestHealthUseCase_GetHealth(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*mocks.MockHealthRepository)
		expectedStatus entities.HealthStatus
		expectError    bool
	}{
		{
			name: "all checks healthy",
			setupMock: func(m *mocks.MockHealthRepository) {
				m.On("CheckHealth", context.Background()).Return(&entities.HealthCheck{
					Checks: map[string]entities.CheckResult{
						"database": {Status: entities.HealthStatusUp, Message: "Database is healthy"},
						"storage":  {Status: entities.HealthStatusUp, Message: "Storage is healthy"},
					},
					SystemInfo: entities.SystemInfo{GoRoutines: 10},
				}, nil)
			},
			expectedStatus: entities.HealthStatusUp,
		},
		{
			name: "database unhealthy",
			setupMock: func(m *mocks.MockHealthRepository) {
				m.On("CheckHealth", context.Background()).Return(&entities.HealthCheck{
					Checks: map[string]entities.CheckResult{
						"database": {Status: entities.HealthStatusDown, Message: "Database connection failed"},
						"storage":  {Status: entities.HealthStatusUp, Message: "Storage is healthy"},
					},
				}, nil)
			},
			expectedStatus: entities.HealthStatusDown,
		},
		{
			name: "partial health - secondary disk unreachable",
			setupMock: func(m *mocks.MockHealthRepository) {
				m.On("CheckHealth", context.Background()).Return(&entities.HealthCheck{
					Checks: map[string]entities.CheckResult{
						"database": {Status: entities.HealthStatusUp, Message: "Database is healthy"},
						"storage":  {Status: entities.HealthStatusPartial, Message: "Disks not reachable: archive"},
					},
				}, nil)
			},
			expectedStatus: entities.HealthStatusPartial,
		},
		{
			name: "repository error",
			setupMock: func(m *mocks.MockHealthRepository) {
				m.On("CheckHealth", context.Background()).Return(nil, errors.New("boom"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockHealthRepository)
			tt.setupMock(mockRepo)

			uc := usecase.NewHealthUseCase(mockRepo, "1.0.0")
			health, err := uc.GetHealth(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, health)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedStatus, health.Status)
				assert.Equal(t, "1.0.0", health.Version)
				assert.False(t, health.Timestamp.IsZero())
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestHealthUseCase_GetReadiness(t *testing.T) {
	tests := []struct {
		name    string
		ready   bool
		message string
	}{
		{name: "service is ready", ready: true, message: "Service is ready"},
		{name: "service not ready - database down", ready: false, message: "Database not ready: ping failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockHealthRepository)
			mockRepo.On("IsReady", context.Background()).Return(tt.ready, tt.message)

			uc := usecase.NewHealthUseCase(mockRepo, "1.0.0")
			ready, msg := uc.GetReadiness(context.Background())

			assert.Equal(t, tt.ready, ready)
			assert.Equal(t, tt.message, msg)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestHealthUseCase_GetLiveness(t *testing.T) {
	mockRepo := new(mocks.MockHealthRepository)
	uc := usecase.NewHealthUseCase(mockRepo, "1.0.0")

	assert.True(t, uc.GetLiveness(context.Background()))
	mockRepo.AssertNotCalled(t, "CheckHealth", mockAnything)
}
