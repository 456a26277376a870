package checkout

import (
	"errors"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// PublicMessage is the only text a client sees when a checkout cannot start.
const PublicMessage = "payment session could not be created"

// BuildError reports a cart or request that cannot be turned into a session.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return "checkout build: " + e.Reason
}

// SessionCreationError wraps a failure returned by the payment processor.
type SessionCreationError struct {
	Cause error
}

func (e *SessionCreationError) Error() string {
	if e.Cause == nil {
		return "checkout session creation failed"
	}
	return "checkout session creation failed: " + e.Cause.Error()
}

func (e *SessionCreationError) Unwrap() error {
	return e.Cause
}

// IsBuildError reports whether err carries a BuildError.
func IsBuildError(err error) bool {
	var target *BuildError
	return errors.As(err, &target)
}

// IsSessionCreationError reports whether err carries a SessionCreationError.
func IsSessionCreationError(err error) bool {
	var target *SessionCreationError
	return errors.As(err, &target)
}

func buildFailed(reason string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, &BuildError{Reason: reason}, PublicMessage).
		WithDetails(map[string]any{"reason": reason})
}

func creationFailed(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, &SessionCreationError{Cause: cause}, PublicMessage).Expose()
}
