package pkgcache

import (
	"errors"
	"fmt"
)

// ErrNotResolved reports that no concrete version could be resolved from
// the registry (unreachable registry or no published versions).
var ErrNotResolved = errors.New("package version could not be resolved")

// Kind classifies lifecycle errors.
type Kind string

const (
	KindConfig     Kind = "config"
	KindResolution Kind = "resolution"
	KindInstall    Kind = "install"
	KindUpdate     Kind = "update"
)

// OpError wraps an underlying error with the operation, the package and a kind.
type OpError struct {
	Op      string
	Kind    Kind
	Package string
	Err     error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Package != "" {
		base += fmt.Sprintf(" (package=%s)", e.Package)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is an *OpError of the given kind.
func IsKind(err error, kind Kind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *OpError in err's chain, or "".
func KindOf(err error) Kind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
