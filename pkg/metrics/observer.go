// Package metrics exports attachment and HTTP metrics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zots0127/onefile/pkg/attachment"
)

// Observer records attachment disk operations.
type Observer struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	transferredBytes  *prometheus.CounterVec
}

var _ attachment.Observer = (*Observer)(nil)

// NewObserver registers the attachment metrics with reg. A nil reg uses the
// default registerer. Collectors already registered by an earlier observer
// are reused.
func NewObserver(namespace string, reg prometheus.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = "onefile"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	duration, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "attachment",
		Name:      "operation_duration_seconds",
		Help:      "Latency of attachment disk operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "disk"}))
	if err != nil {
		return nil, fmt.Errorf("register attachment histogram: %w", err)
	}

	failures, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attachment",
		Name:      "operation_errors_total",
		Help:      "Count of failed attachment operations by failure kind.",
	}, []string{"operation", "disk", "kind"}))
	if err != nil {
		return nil, fmt.Errorf("register attachment error counter: %w", err)
	}

	transferred, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attachment",
		Name:      "transferred_bytes_total",
		Help:      "Bytes written to or read from disks.",
	}, []string{"operation", "disk"}))
	if err != nil {
		return nil, fmt.Errorf("register attachment bytes counter: %w", err)
	}

	return &Observer{
		operationDuration: duration,
		operationErrors:   failures,
		transferredBytes:  transferred,
	}, nil
}

func (o *Observer) RecordStore(disk string, duration time.Duration, size int64, err error) {
	o.record("store", disk, duration, size, err)
}

func (o *Observer) RecordDelete(disk string, duration time.Duration, err error) {
	o.record("delete", disk, duration, 0, err)
}

func (o *Observer) RecordRead(disk string, duration time.Duration, size int64, err error) {
	o.record("read", disk, duration, size, err)
}

func (o *Observer) record(op, disk string, duration time.Duration, size int64, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(op, disk).Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(op, disk, errorKind(err)).Inc()
		return
	}
	if size > 0 {
		o.transferredBytes.WithLabelValues(op, disk).Add(float64(size))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, attachment.ErrStorageWrite):
		return "storage_write"
	case errors.Is(err, attachment.ErrStorageDelete):
		return "storage_delete"
	case errors.Is(err, attachment.ErrStorageRead):
		return "storage_read"
	case errors.Is(err, attachment.ErrPersistence):
		return "persistence"
	case errors.Is(err, attachment.ErrInvalidFileName):
		return "invalid_file_name"
	case errors.Is(err, attachment.ErrInvalidRecord):
		return "invalid_record"
	default:
		return "other"
	}
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
