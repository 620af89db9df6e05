package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryDisk keeps objects in process memory. It backs the "memory" driver
// and the fake disks used in tests.
type MemoryDisk struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryDisk creates an empty in-memory disk
func NewMemoryDisk(baseURL string) *MemoryDisk {
	return &MemoryDisk{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Put copies the reader content under dir/name.
func (d *MemoryDisk) Put(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := JoinKey(dir, name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[key] = data
	return key, nil
}

// Get returns a reader over a copy of the stored bytes.
func (d *MemoryDisk) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := CleanKey(path)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Exists reports whether an object is stored under path.
func (d *MemoryDisk) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := CleanKey(path)
	if err != nil {
		return false, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.objects[key]
	return ok, nil
}

// DeleteDirectory drops every object whose key starts with dir.
func (d *MemoryDisk) DeleteDirectory(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix, err := DirPrefix(dir)
	if err != nil {
		return err
	}
	if prefix == "" {
		return fmt.Errorf("%w: refusing to delete disk root", ErrInvalidPath)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.objects {
		if strings.HasPrefix(key, prefix) {
			delete(d.objects, key)
		}
	}
	return nil
}

// URL joins the base URL with the escaped path.
func (d *MemoryDisk) URL(ctx context.Context, path string) (string, error) {
	return publicURL(d.baseURL, path)
}

// Keys returns the stored keys below dir in sorted order.
func (d *MemoryDisk) Keys(dir string) []string {
	prefix, err := DirPrefix(dir)
	if err != nil {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0)
	for key := range d.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
