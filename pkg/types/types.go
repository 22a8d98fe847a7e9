package types

import "encoding/json"

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// SessionIDHeader carries the session ID on result submissions so a stale tab
// from an earlier run cannot resolve the current session's operation.
const SessionIDHeader = "X-Session-Id"

// Bridge polling types

// StateResponse is the body of GET /api/state, polled by the browser page.
type StateResponse struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
	Data      any    `json:"data"`
}

// ShutdownResponse is the body of GET /api/shutdown.
type ShutdownResponse struct {
	ShouldClose bool `json:"shouldClose"`
}

// Result submission types

// PublicKeyBody is the body of POST /public-key.
type PublicKeyBody struct {
	PublicKey string `json:"publicKey" binding:"required"`
}

// SignedEventsBody is the body of POST /signed-events: the signed batch as a
// bare JSON array, verbatim. Events stay opaque to the bridge.
type SignedEventsBody = []json.RawMessage

// EncryptionResultBody is the body of POST /encryption-result. Exactly one of
// Result and Error is expected; a body carrying neither is a no-op.
type EncryptionResultBody struct {
	Result *string `json:"result"`
	Error  *string `json:"error"`
}
