package storage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

var (
	// ErrNotFound signals a point lookup or delete target that does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict signals an add with an already-occupied key.
	ErrConflict = errors.New("storage: key already exists")
	// ErrPreconditionFailed signals an update carrying a stale version token.
	ErrPreconditionFailed = errors.New("storage: version token is stale")
)

// TransportError wraps any backend fault outside the typed taxonomy. The
// underlying error is preserved for logging but opaque to callers.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// mapError converts an Azure response error into the typed taxonomy. Faults
// without a taxonomy mapping become a TransportError for the given operation.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusConflict:
			return ErrConflict
		case http.StatusPreconditionFailed:
			return ErrPreconditionFailed
		}
	}
	return &TransportError{Op: op, Err: err}
}
