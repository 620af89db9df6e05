package repository

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"

	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/pkg/storage"
)

// HealthRepositoryImpl implements HealthRepository
type HealthRepositoryImpl struct {
	db    *sql.DB
	disks *storage.Manager
}

// NewHealthRepository creates a new health repository
func NewHealthRepository(db *sql.DB, disks *storage.Manager) repository.HealthRepository {
	return &HealthRepositoryImpl{
		db:    db,
		disks: disks,
	}
}

// CheckHealth performs a comprehensive health check
func (h *HealthRepositoryImpl) CheckHealth(ctx context.Context) (*entities.HealthCheck, error) {
	checks := map[string]entities.CheckResult{
		"database": h.CheckDatabase(ctx),
		"storage":  h.CheckStorage(ctx),
	}

	systemInfo, err := h.GetSystemInfo(ctx)
	if err != nil {
		systemInfo = &entities.SystemInfo{}
	}

	return &entities.HealthCheck{
		Status:     entities.OverallStatus(checks),
		Checks:     checks,
		SystemInfo: *systemInfo,
	}, nil
}

// CheckDatabase verifies database connectivity and health
func (h *HealthRepositoryImpl) CheckDatabase(ctx context.Context) entities.CheckResult {
	if h.db == nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: "Database connection is nil",
		}
	}

	if err := h.db.PingContext(ctx); err != nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: fmt.Sprintf("Database ping failed: %v", err),
		}
	}

	stats := h.db.Stats()
	details := map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": stats.MaxOpenConnections,
	}

	status := entities.HealthStatusUp
	message := "Database is healthy"

	if stats.MaxOpenConnections > 0 && stats.InUse > stats.MaxOpenConnections*8/10 {
		status = entities.HealthStatusPartial
		message = "High database connection usage"
	}

	return entities.CheckResult{
		Status:  status,
		Message: message,
		Details: details,
	}
}

// CheckStorage pings every disk. The default disk failing is down, any other
// disk failing is partial.
func (h *HealthRepositoryImpl) CheckStorage(ctx context.Context) entities.CheckResult {
	if h.disks == nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: "No disks configured",
		}
	}

	failures := h.disks.Ping(ctx)
	names := h.disks.Names()
	details := make(map[string]interface{}, len(names))
	var failed []string
	defaultFailed := false
	for _, name := range names {
		if err, ok := failures[name]; ok {
			details[name] = err.Error()
			failed = append(failed, name)
			if name == h.disks.Default() {
				defaultFailed = true
			}
			continue
		}
		details[name] = "ok"
	}
	if _, ok := details[h.disks.Default()]; !ok {
		defaultFailed = true
		failed = append(failed, h.disks.Default())
	}

	switch {
	case defaultFailed:
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: fmt.Sprintf("Default disk not reachable: %s", strings.Join(failed, ", ")),
			Details: details,
		}
	case len(failed) > 0:
		return entities.CheckResult{
			Status:  entities.HealthStatusPartial,
			Message: fmt.Sprintf("Disks not reachable: %s", strings.Join(failed, ", ")),
			Details: details,
		}
	default:
		return entities.CheckResult{
			Status:  entities.HealthStatusUp,
			Message: "Storage is healthy",
			Details: details,
		}
	}
}

// GetSystemInfo retrieves process information
func (h *HealthRepositoryImpl) GetSystemInfo(ctx context.Context) (*entities.SystemInfo, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &entities.SystemInfo{
		AllocatedMemory: int64(memStats.Alloc),
		SystemMemory:    int64(memStats.Sys),
		GoRoutines:      runtime.NumGoroutine(),
	}, nil
}

// IsReady checks if the service is ready to handle requests
func (h *HealthRepositoryImpl) IsReady(ctx context.Context) (bool, string) {
	if db := h.CheckDatabase(ctx); db.Status == entities.HealthStatusDown {
		return false, fmt.Sprintf("Database not ready: %s", db.Message)
	}

	if st := h.CheckStorage(ctx); st.Status == entities.HealthStatusDown {
		return false, fmt.Sprintf("Storage not ready: %s", st.Message)
	}

	return true, "Service is ready"
}
