package ports

import "fmt"

var ErrUnsupported = fmt.Errorf("capability not supported by this backend")

type BackendErrorKind int

const (
	// BackendTransport marks network-level failures (unreachable host,
	// timeout, connection reset). Callers may retry.
	BackendTransport BackendErrorKind = iota
	// BackendRejection marks operations the backend received and refused
	// (bad credentials, insufficient funds, no route). Terminal.
	BackendRejection
)

type BackendError struct {
	Kind    BackendErrorKind
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Retryable() bool {
	return e.Kind == BackendTransport
}

func NewTransportError(format string, args ...any) *BackendError {
	return &BackendError{Kind: BackendTransport, Message: fmt.Sprintf(format, args...)}
}

func NewRejectionError(format string, args ...any) *BackendError {
	return &BackendError{Kind: BackendRejection, Message: fmt.Sprintf(format, args...)}
}
