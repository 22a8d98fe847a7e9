package bridge

import "encoding/json"

// Mode is the single active operation kind. The string values are the wire
// representation the browser page sees in /api/state.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModePublicKey    Mode = "publicKey"
	ModeSign         Mode = "sign"
	ModeNip04Encrypt Mode = "nip04Encrypt"
	ModeNip04Decrypt Mode = "nip04Decrypt"
	ModeNip44Encrypt Mode = "nip44Encrypt"
	ModeNip44Decrypt Mode = "nip44Decrypt"
)

// IsEncryption reports whether m is one of the four encrypt/decrypt modes,
// all of which complete through POST /encryption-result.
func (m Mode) IsEncryption() bool {
	switch m {
	case ModeNip04Encrypt, ModeNip04Decrypt, ModeNip44Encrypt, ModeNip44Decrypt:
		return true
	default:
		return false
	}
}

// SignPayload is the /api/state data for sign mode: the unsigned batch,
// carried opaquely.
type SignPayload struct {
	Events []json.RawMessage `json:"events"`
}

// EncryptPayload is the /api/state data for the two encrypt modes.
type EncryptPayload struct {
	PubKey    string `json:"pubkey"`
	Plaintext string `json:"plaintext"`
}

// DecryptPayload is the /api/state data for the two decrypt modes.
type DecryptPayload struct {
	PubKey     string `json:"pubkey"`
	Ciphertext string `json:"ciphertext"`
}
