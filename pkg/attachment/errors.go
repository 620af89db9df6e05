package attachment

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageWrite means the disk did not store the new file.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageDelete means the disk did not delete the storage directory.
	ErrStorageDelete = errors.New("storage delete failed")
	// ErrStorageRead means the stored file could not be read.
	ErrStorageRead = errors.New("storage read failed")
	// ErrPersistence means the record could not be saved.
	ErrPersistence = errors.New("record save failed")

	// ErrInvalidFileName is returned for names that cannot be stored.
	ErrInvalidFileName = errors.New("attachment: invalid file name")
	// ErrInvalidRecord is returned when a record's id or collection cannot
	// name a storage directory of its own.
	ErrInvalidRecord = errors.New("attachment: invalid record id or collection")
	// ErrNoFileField is returned when no file name field can be resolved.
	ErrNoFileField = errors.New("attachment: no file name field")

	errNoPath = errors.New("disk reported no stored path")
)

// Error describes a failed attachment operation. It matches both its Kind
// and the underlying error with errors.Is.
type Error struct {
	Op   string
	Kind error
	Disk string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("attachment %s on disk %q at %s: %v", e.Op, e.Disk, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
