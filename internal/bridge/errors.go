package bridge

import "errors"

var (
	// ErrSessionClosed rejects any completion still outstanding when the
	// session is closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrSuperseded rejects a pending completion when a newer operation is
	// started before the old one settled.
	ErrSuperseded = errors.New("superseded by a newer operation")
)

// SignerError is an error reported by the browser extension, such as a
// missing capability or the user rejecting the request.
type SignerError struct {
	Message string
}

func (e *SignerError) Error() string {
	return e.Message
}
