package bitgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bitgo/blobstore"
	"github.com/hupe1980/bitgo/internal/snapshot"
)

// Precondition violations. These are raised with panic because they indicate
// a programming error rather than a runtime condition.
var (
	// ErrAliasedOperand is raised when the target of a lazy operation is also
	// passed as its operand.
	ErrAliasedOperand = errors.New("operand aliases the lazy target")

	// ErrLazyDirty is raised when a bitmap is used while its storage is
	// checked out to a LazyBatch.
	ErrLazyDirty = errors.New("bitmap is inside a lazy batch")

	// ErrConsumed is raised when a LazyOwned is used after IntoInner, or a
	// Lazy handle is used after its batch returned.
	ErrConsumed = errors.New("lazy bitmap already consumed")

	// ErrConcurrentModification is raised when a bitmap is mutated while a
	// borrowing Iterator walks it.
	ErrConcurrentModification = errors.New("bitmap mutated during iteration")
)

var (
	// ErrNotFound is returned when a named bitmap does not exist in a Catalog.
	ErrNotFound = errors.New("bitmap not found")

	// ErrInvalidName is returned for empty names or names containing path
	// separators reserved by the catalog layout.
	ErrInvalidName = errors.New("invalid bitmap name")
)

// ErrCorruptSnapshot indicates a stored bitmap failed validation.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorruptSnapshot struct {
	Name  string
	cause error
}

func (e *ErrCorruptSnapshot) Error() string {
	return fmt.Sprintf("corrupt snapshot %q: %v", e.Name, e.cause)
}

func (e *ErrCorruptSnapshot) Unwrap() error { return e.cause }

func translateError(name string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %q: %w", ErrNotFound, name, err)
	}
	if errors.Is(err, snapshot.ErrCorrupt) {
		return &ErrCorruptSnapshot{Name: name, cause: err}
	}

	return err
}
