package railrad

import (
	"errors"
	"fmt"

	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/resource"
	"github.com/hupe1980/railrad/sink"
	"github.com/hupe1980/railrad/tensor"
)

var (
	// ErrLoad is matched by every *LoadError.
	ErrLoad = errors.New("railrad: cannot load database")

	// ErrInvalidNode is matched by every *InvalidNodeError.
	ErrInvalidNode = errors.New("railrad: invalid node")

	// ErrShape is matched by every *ShapeError.
	ErrShape = errors.New("railrad: shape mismatch")

	// ErrDomain is matched by every *DomainError.
	ErrDomain = errors.New("railrad: invalid domain")

	// ErrNotConfigured is returned by operations that need a query grid
	// before Configure succeeded.
	ErrNotConfigured = errors.New("railrad: database not configured")

	// ErrMemoryLimit is returned when a result tensor does not fit the
	// resource controller's memory budget. StreamTransferFunctions bounds
	// memory to one frequency row and is the usual way out.
	ErrMemoryLimit = errors.New("railrad: memory limit exceeded")
)

// LoadError reports a missing or malformed database field.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type LoadError struct {
	Field  string
	Reason string
	cause  error
}

func (e *LoadError) Error() string {
	if e.Reason == "" && e.cause != nil {
		return fmt.Sprintf("railrad: load %q: %v", e.Field, e.cause)
	}
	return fmt.Sprintf("railrad: load %q: %s", e.Field, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.cause }

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// InvalidNodeError reports the first requested node index that is not a
// member of the corresponding node set.
type InvalidNodeError struct {
	// Role is "receiver" or "source".
	Role string
	Node int
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("railrad: %s node %d is not in the node set", e.Role, e.Node)
}

// Is reports whether target is ErrInvalidNode.
func (e *InvalidNodeError) Is(target error) bool { return target == ErrInvalidNode }

// ShapeError reports mismatched array shapes between the configured grid,
// requested indices or a velocity field. A -1 in Expected marks an axis of
// unconstrained length.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ShapeError struct {
	Name     string
	Expected []int
	Actual   []int
	cause    error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("railrad: %s: got %v, want %v", e.Name, e.Actual, e.Expected)
}

func (e *ShapeError) Unwrap() error { return e.cause }

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// DomainError reports a malformed interpolation grid.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DomainError struct {
	Name   string
	Reason string
	cause  error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("railrad: %s: %s", e.Name, e.Reason)
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is reports whether target is ErrDomain.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// translateError maps errors of the lower packages onto the root kinds so
// that callers only need errors.Is/As against this package.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already translated.
	if errors.Is(err, ErrLoad) || errors.Is(err, ErrInvalidNode) ||
		errors.Is(err, ErrShape) || errors.Is(err, ErrDomain) ||
		errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrMemoryLimit) {
		return err
	}

	var ise *interp.ShapeError
	if errors.As(err, &ise) {
		return &ShapeError{
			Name:     "transfer functions",
			Expected: []int{ise.Expected},
			Actual:   []int{ise.Actual},
			cause:    err,
		}
	}
	if errors.Is(err, interp.ErrDomain) {
		return &DomainError{Name: "frequency grid", Reason: err.Error(), cause: err}
	}
	if errors.Is(err, tensor.ErrShape) || errors.Is(err, sink.ErrShape) {
		return fmt.Errorf("%w: %w", ErrShape, err)
	}
	if errors.Is(err, resource.ErrMemoryLimit) {
		return fmt.Errorf("%w: %w", ErrMemoryLimit, err)
	}
	if errors.Is(err, container.ErrNotFound) || errors.Is(err, container.ErrCorrupt) ||
		errors.Is(err, container.ErrType) {
		return &LoadError{Field: "container", cause: err}
	}

	return err
}
