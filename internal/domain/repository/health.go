package repository

import (
	"context"

	"github.com/zots0127/onefile/internal/domain/entities"
)

// HealthRepository defines the interface for health check operations
type HealthRepository interface {
	// CheckHealth runs every check
	CheckHealth(ctx context.Context) (*entities.HealthCheck, error)

	// CheckDatabase verifies database connectivity
	CheckDatabase(ctx context.Context) entities.CheckResult

	// CheckStorage verifies that every configured disk is reachable
	CheckStorage(ctx context.Context) entities.CheckResult

	// GetSystemInfo retrieves process information
	GetSystemInfo(ctx context.Context) (*entities.SystemInfo, error)

	// IsReady checks if the service is ready to handle requests
	IsReady(ctx context.Context) (bool, string)
}
