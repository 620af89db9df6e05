package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zots0127/onefile/pkg/storage"
	"go.uber.org/zap"
)

// Config selects the disk and the file name field of a record type.
type Config[R Record] struct {
	// Disk names the storage disk. Empty selects the manager's default disk.
	Disk string
	// Field overrides the file name field. The zero value selects the
	// FileNamer methods of the record under the name "file_name".
	Field Field[R]
}

// Observer receives the outcome of every disk operation.
type Observer interface {
	RecordStore(disk string, duration time.Duration, size int64, err error)
	RecordDelete(disk string, duration time.Duration, err error)
	RecordRead(disk string, duration time.Duration, size int64, err error)
}

type noopObserver struct{}

func (noopObserver) RecordStore(string, time.Duration, int64, error) {}
func (noopObserver) RecordDelete(string, time.Duration, error)       {}
func (noopObserver) RecordRead(string, time.Duration, int64, error)  {}

type options struct {
	logger   *zap.Logger
	locker   Locker
	observer Observer
}

// Option changes the optional collaborators of an Attachment.
type Option func(o *options)

// WithLogger sets the logger. Operations are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLocker serializes StoreFile and DeleteFile per disk and storage directory.
func WithLocker(locker Locker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithObserver reports operation outcomes to observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Attachment manages the single file attached to records of type R.
// Without a Locker, concurrent calls for the same record are not coordinated.
type Attachment[R Record] struct {
	diskName string
	disk     storage.Disk
	field    Field[R]
	saver    Saver[R]
	logger   *zap.Logger
	locker   Locker
	observer Observer
}

// New composes an Attachment for records of type R. The disk and the field
// are resolved once here.
func New[R Record](disks *storage.Manager, saver Saver[R], cfg Config[R], opts ...Option) (*Attachment[R], error) {
	if disks == nil {
		return nil, errors.New("attachment: disk manager is required")
	}
	if saver == nil {
		return nil, errors.New("attachment: saver is required")
	}

	diskName := cfg.Disk
	if diskName == "" {
		diskName = disks.Default()
	}
	disk, err := disks.Disk(diskName)
	if err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}

	field := cfg.Field
	if field.Get == nil && field.Set == nil {
		var ok bool
		if field, ok = defaultField[R](); !ok {
			return nil, ErrNoFileField
		}
	}
	if field.Get == nil || field.Set == nil {
		return nil, fmt.Errorf("%w: field %q needs both accessors", ErrNoFileField, field.Name)
	}
	if field.Name == "" {
		field.Name = DefaultFileField
	}

	o := options{
		logger:   zap.NewNop(),
		locker:   noopLocker{},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Attachment[R]{
		diskName: diskName,
		disk:     disk,
		field:    field,
		saver:    saver,
		logger:   o.logger.With(zap.String("disk", diskName)),
		locker:   o.locker,
		observer: o.observer,
	}, nil
}

// Disk returns the name of the resolved disk.
func (a *Attachment[R]) Disk() string {
	return a.diskName
}

// Field returns the name of the file name field.
func (a *Attachment[R]) Field() string {
	return a.field.Name
}

// StorageDirectory returns "/{collection}/{id}/".
func (a *Attachment[R]) StorageDirectory(record R) string {
	return "/" + record.CollectionName() + "/" + record.RecordID() + "/"
}

// directory returns the storage directory of record after checking that its
// id and collection are single path segments. An empty id or "." would
// otherwise resolve to the collection directory itself.
func (a *Attachment[R]) directory(record R) (string, error) {
	for _, seg := range []string{record.CollectionName(), record.RecordID()} {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, "/\\") {
			return "", fmt.Errorf("%w: collection %q id %q", ErrInvalidRecord, record.CollectionName(), record.RecordID())
		}
	}
	return a.StorageDirectory(record), nil
}

// StoragePath returns the path of the attached file. It does no I/O.
func (a *Attachment[R]) StoragePath(record R) string {
	return a.StorageDirectory(record) + a.field.Get(record)
}

// FileExists reports whether the record names a file. The disk is not consulted.
func (a *Attachment[R]) FileExists(record R) bool {
	return a.field.Get(record) != ""
}

// StoreFile replaces the record's file with file and returns its storage path.
//
// The storage directory is emptied before the new file is written, then the
// file name field is set and, if persist is true, the record is saved.
func (a *Attachment[R]) StoreFile(ctx context.Context, record R, file File, persist bool) (path string, err error) {
	start := time.Now()
	var size int64
	defer func() {
		a.observer.RecordStore(a.diskName, time.Since(start), size, err)
	}()

	name, err := fileName(file)
	if err != nil {
		return "", err
	}

	dir, err := a.directory(record)
	if err != nil {
		return "", err
	}
	unlock := a.locker.Lock(a.diskName + ":" + dir)
	defer unlock()

	if err := a.disk.DeleteDirectory(ctx, dir); err != nil {
		return "", &Error{Op: "store", Kind: ErrStorageDelete, Disk: a.diskName, Path: dir, Err: err}
	}

	content, err := file.Open()
	if err != nil {
		return "", &Error{Op: "store", Kind: ErrStorageWrite, Disk: a.diskName, Path: dir + name, Err: err}
	}
	defer content.Close()

	counter := &countingReader{r: content}
	written, err := a.disk.Put(ctx, dir, name, counter)
	if err == nil && written == "" {
		err = errNoPath
	}
	if err != nil {
		return "", &Error{Op: "store", Kind: ErrStorageWrite, Disk: a.diskName, Path: dir + name, Err: err}
	}
	size = counter.n

	a.field.Set(record, name)
	path = a.StoragePath(record)

	if persist {
		if err := a.saver.Save(ctx, record); err != nil {
			return "", &Error{Op: "store", Kind: ErrPersistence, Disk: a.diskName, Path: path, Err: err}
		}
	}

	a.logger.Debug("file stored",
		zap.String("path", path),
		zap.Int64("size", size),
		zap.Bool("persisted", persist),
	)
	return path, nil
}

// DeleteFile removes the record's storage directory and clears the file name
// field. Deleting when no file exists succeeds. On failure the field is left
// untouched and nothing is saved.
func (a *Attachment[R]) DeleteFile(ctx context.Context, record R, persist bool) (err error) {
	start := time.Now()
	defer func() {
		a.observer.RecordDelete(a.diskName, time.Since(start), err)
	}()

	dir, err := a.directory(record)
	if err != nil {
		return err
	}
	unlock := a.locker.Lock(a.diskName + ":" + dir)
	defer unlock()

	if err := a.disk.DeleteDirectory(ctx, dir); err != nil {
		return &Error{Op: "delete", Kind: ErrStorageDelete, Disk: a.diskName, Path: dir, Err: err}
	}

	a.field.Set(record, "")
	if persist {
		if err := a.saver.Save(ctx, record); err != nil {
			return &Error{Op: "delete", Kind: ErrPersistence, Disk: a.diskName, Path: dir, Err: err}
		}
	}

	a.logger.Debug("file deleted", zap.String("dir", dir), zap.Bool("persisted", persist))
	return nil
}

// FileContents reads the attached file. It fails with ErrStorageRead when
// nothing is stored at the storage path, including when no file is attached.
func (a *Attachment[R]) FileContents(ctx context.Context, record R) (data []byte, err error) {
	start := time.Now()
	defer func() {
		a.observer.RecordRead(a.diskName, time.Since(start), int64(len(data)), err)
	}()

	dir, err := a.directory(record)
	if err != nil {
		return nil, err
	}
	path := dir + a.field.Get(record)
	rc, err := a.disk.Get(ctx, path)
	if err != nil {
		return nil, &Error{Op: "read", Kind: ErrStorageRead, Disk: a.diskName, Path: path, Err: err}
	}
	defer rc.Close()

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, &Error{Op: "read", Kind: ErrStorageRead, Disk: a.diskName, Path: path, Err: err}
	}
	return data, nil
}

// AccessURL returns the public URL of the attached file. It returns an empty
// string without error when no file is attached or the disk cannot build URLs.
func (a *Attachment[R]) AccessURL(ctx context.Context, record R) (string, error) {
	if !a.FileExists(record) {
		return "", nil
	}
	gen, ok := a.disk.(storage.URLGenerator)
	if !ok {
		return "", nil
	}

	url, err := gen.URL(ctx, a.StoragePath(record))
	if errors.Is(err, storage.ErrURLUnsupported) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to build url for %s: %w", a.StoragePath(record), err)
	}
	return url, nil
}

// BeforeDelete removes the file of a record about to be deleted. The record
// itself is not saved.
func (a *Attachment[R]) BeforeDelete(ctx context.Context, record R) error {
	return a.DeleteFile(ctx, record, false)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
