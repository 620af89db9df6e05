package attachment

import (
	"context"
	"reflect"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// DefaultFileField is the name of the file name field when none is configured.
const DefaultFileField = "file_name"

// Record is a persisted entity a file can be attached to.
type Record interface {
	// RecordID returns the stable unique identifier of the record.
	RecordID() string
	// CollectionName returns the namespace of the record type, usually its table.
	CollectionName() string
}

// FileNamer is implemented by records keeping the file name in the default field.
type FileNamer interface {
	FileName() string
	SetFileName(name string)
}

// Field is a typed accessor pair for the field holding the stored file name.
// The empty string means no file is attached.
type Field[R any] struct {
	Name string
	Get  func(R) string
	Set  func(R, string)
}

// Saver persists the in-memory state of a record.
type Saver[R any] interface {
	Save(ctx context.Context, record R) error
}

// BeforeDeleter is called by a repository before it removes a record.
type BeforeDeleter[R any] interface {
	BeforeDelete(ctx context.Context, record R) error
}

// DefaultCollectionName derives a collection name from the type of v:
// the snake cased plural of the type name, "Document" -> "documents".
func DefaultCollectionName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return ""
	}
	return inflection.Plural(strcase.ToSnake(t.Name()))
}

func defaultField[R any]() (Field[R], bool) {
	var zero R
	if _, ok := any(zero).(FileNamer); !ok {
		return Field[R]{}, false
	}
	return Field[R]{
		Name: DefaultFileField,
		Get:  func(r R) string { return any(r).(FileNamer).FileName() },
		Set:  func(r R, name string) { any(r).(FileNamer).SetFileName(name) },
	}, true
}
