package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver names understood by Open.
const (
	DriverLocal  = "local"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// DiskConfig holds the configuration of a single named disk
type DiskConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	// Root is the base directory of a local disk.
	Root string `yaml:"root" json:"root"`
	// URL is the public base URL. For local disks a value starting with "/"
	// is also the route prefix the HTTP server serves the disk under.
	URL string `yaml:"url" json:"url"`

	Bucket         string `yaml:"bucket" json:"bucket"`
	Prefix         string `yaml:"prefix" json:"prefix"`
	Region         string `yaml:"region" json:"region"`
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	AccessKey      string `yaml:"access_key" json:"access_key" sensitive:"true"`
	SecretKey      string `yaml:"secret_key" json:"secret_key" sensitive:"true"`
	ForcePathStyle bool   `yaml:"force_path_style" json:"force_path_style"`
}

// Open creates a disk for the given configuration.
func Open(cfg DiskConfig) (Disk, error) {
	switch cfg.Driver {
	case DriverLocal:
		return NewLocalDisk(cfg.Root, cfg.URL)
	case DriverS3:
		return NewS3Disk(cfg)
	case DriverMemory:
		return NewMemoryDisk(cfg.URL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Manager keeps the named disks of the process and the default disk name.
// It is safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

// NewManager creates an empty manager using defaultDisk as default name
func NewManager(defaultDisk string) *Manager {
	return &Manager{
		disks:       make(map[string]Disk),
		defaultDisk: defaultDisk,
	}
}

// NewManagerFromConfig opens every configured disk.
func NewManagerFromConfig(defaultDisk string, disks map[string]DiskConfig) (*Manager, error) {
	m := NewManager(defaultDisk)
	for name, cfg := range disks {
		disk, err := Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open disk %q: %w", name, err)
		}
		m.Register(name, disk)
	}
	if _, err := m.Disk(defaultDisk); err != nil {
		return nil, fmt.Errorf("default disk: %w", err)
	}
	return m, nil
}

// Register adds or replaces the disk with the given name.
func (m *Manager) Register(name string, disk Disk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disks[name] = disk
}

// Disk returns the disk registered under name.
func (m *Manager) Disk(name string) (Disk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	disk, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisk, name)
	}
	return disk, nil
}

// Default returns the default disk name.
func (m *Manager) Default() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDisk
}

// Names returns the registered disk names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.disks))
	for name := range m.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every disk implementing Pinger and returns the failures by name.
func (m *Manager) Ping(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, name := range m.Names() {
		disk, err := m.Disk(name)
		if err != nil {
			failures[name] = err
			continue
		}
		if p, ok := disk.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				failures[name] = err
			}
		}
	}
	return failures
}
