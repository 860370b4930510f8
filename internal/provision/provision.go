package provision

import (
	"context"
	"errors"
	"fmt"

	"labforge/pkg/apis/lab/v1alpha1"
)

// Result carries what a successful provision produced.
type Result struct {
	// Endpoint is the URL the lab environment is reachable at.
	Endpoint string
}

// Provisioner creates and destroys lab environments. Both operations may
// take a long time; implementations must honor context cancellation and
// return promptly when the deadline passes.
type Provisioner interface {
	// Provision creates the environment for inst. It is called at most once
	// per instance.
	Provision(ctx context.Context, inst *v1alpha1.LabInstance) (*Result, error)

	// Teardown destroys the environment for inst. Tearing down an
	// environment that does not exist must succeed, so retries and
	// compensation paths stay simple.
	Teardown(ctx context.Context, inst *v1alpha1.LabInstance) error
}

// Operation names used in Error.Op.
const (
	OpProvision = "provision"
	OpTeardown  = "teardown"
)

// Sentinel causes wrapped by Error. Match with errors.Is.
var (
	// ErrTemplateUnknown means the requested template is not offered by
	// this provisioner.
	ErrTemplateUnknown = errors.New("template is not known to this provisioner")

	// ErrQuota means the provisioner is at its active-environment limit.
	ErrQuota = errors.New("active environment quota exceeded")

	// ErrCancelled means the operation was abandoned because the context
	// was cancelled or timed out.
	ErrCancelled = errors.New("operation cancelled")
)

// Error is the typed failure returned by provisioner implementations.
type Error struct {
	// Op is OpProvision or OpTeardown.
	Op string
	// Name is the instance the operation ran for.
	Name string
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, name string, cause error) *Error {
	return &Error{Op: op, Name: name, Err: cause}
}

// IsProvisionError reports whether err is a provisioner failure from the
// provision operation.
func IsProvisionError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Op == OpProvision
}

// IsTeardownError reports whether err is a provisioner failure from the
// teardown operation.
func IsTeardownError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Op == OpTeardown
}
