// Package storagetest provides fake disks and assertions for tests that
// exercise code writing to storage disks.
package storagetest

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zots0127/onefile/pkg/storage"
)

// Fake registers a fresh in-memory disk under name and returns it.
func Fake(m *storage.Manager, name string) *storage.MemoryDisk {
	disk := storage.NewMemoryDisk("http://localhost/" + name)
	m.Register(name, disk)
	return disk
}

// AssertExists checks that an object is stored under path.
func AssertExists(t testing.TB, disk storage.Disk, path string) bool {
	t.Helper()
	ok, err := disk.Exists(context.Background(), path)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.True(t, ok, "expected %s to exist", path)
}

// AssertMissing checks that nothing is stored under path.
func AssertMissing(t testing.TB, disk storage.Disk, path string) bool {
	t.Helper()
	ok, err := disk.Exists(context.Background(), path)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.False(t, ok, "expected %s to be missing", path)
}

// FailingDisk wraps a disk and returns the configured errors instead of
// calling through. A nil error passes the call to the wrapped disk.
type FailingDisk struct {
	storage.Disk
	PutErr    error
	GetErr    error
	DeleteErr error
	// EmptyPut makes Put report success without a path.
	EmptyPut bool
}

func (d *FailingDisk) Put(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if d.PutErr != nil {
		return "", d.PutErr
	}
	if d.EmptyPut {
		return "", nil
	}
	return d.Disk.Put(ctx, dir, name, r)
}

func (d *FailingDisk) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if d.GetErr != nil {
		return nil, d.GetErr
	}
	return d.Disk.Get(ctx, path)
}

func (d *FailingDisk) DeleteDirectory(ctx context.Context, dir string) error {
	if d.DeleteErr != nil {
		return d.DeleteErr
	}
	return d.Disk.DeleteDirectory(ctx, dir)
}
