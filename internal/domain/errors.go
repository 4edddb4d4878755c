package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes a remote call can produce.
// Callers branch on the kind, never on concrete SDK error types.
type ErrorKind string

const (
	ErrKindAuth           ErrorKind = "auth"
	ErrKindNotFound       ErrorKind = "not_found"
	ErrKindNetwork        ErrorKind = "network"
	ErrKindContractRevert ErrorKind = "contract_revert"
	ErrKindPlatform       ErrorKind = "platform"
)

// RemoteError wraps a failure from the platform API or the chain RPC.
type RemoteError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError builds a RemoteError; Op names the failed call site.
func NewRemoteError(kind ErrorKind, op string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the error kind, or "" if err is not a RemoteError.
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
