// Package bridge implements the session bridge between a CLI process and a
// NIP-07 browser signing extension: a loopback HTTP server, a mode-tagged
// operation state machine, and one-shot completions that let a CLI call block
// until the browser posts the operation's result back.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/purplebase/nip07-signer/internal/browser"
	"github.com/purplebase/nip07-signer/internal/config"
	"github.com/purplebase/nip07-signer/internal/logger"
)

// Session is one bridge run. It owns the loopback listener, the single
// active operation, and the pending completion the CLI side awaits. Only one
// operation is in flight at a time; starting a second one supersedes the
// first.
type Session struct {
	cfg *config.Config
	id  string

	// mu guards mode, payload, pending and the shutdown flags. It is held
	// only for in-memory transitions, never across I/O.
	mu          sync.Mutex
	mode        Mode
	payload     any
	pending     *completion
	shouldClose bool
	closed      bool

	// openBrowser is swapped out in tests. Guarded by openOnce so repeated
	// operations never launch a second tab.
	openBrowser func(url string) error
	openOnce    sync.Once

	listener  net.Listener
	srv       *http.Server
	closeOnce sync.Once
	closeErr  error
}

// NewSession binds the loopback listener and starts serving. A bind failure
// (port already taken by another bridge instance) is fatal and returned to
// the caller.
func NewSession(cfg *config.Config) (*Session, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind bridge port: %w", err)
	}

	s := &Session{
		cfg:         cfg,
		id:          uuid.NewString(),
		mode:        ModeIdle,
		openBrowser: browser.Open,
		listener:    listener,
	}
	s.srv = &http.Server{Handler: s.router()}

	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("bridge server stopped: %v", err)
		}
	}()

	logger.Debugf("bridge session %s listening on %s", s.id, s.URL())
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// URL returns the session URL the browser should load.
func (s *Session) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", s.listener.Addr().(*net.TCPAddr).Port)
}

// GetPublicKey asks the extension for its public key and blocks until the
// browser posts it back.
func (s *Session) GetPublicKey(ctx context.Context) (string, error) {
	c, err := s.begin(ModePublicKey, nil)
	if err != nil {
		return "", err
	}
	value, err := c.await(ctx)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// SignEvents asks the extension to sign a batch of events and blocks until
// the signed batch comes back. Events are opaque to the bridge; they are
// returned exactly as the browser posted them.
func (s *Session) SignEvents(ctx context.Context, events []json.RawMessage) ([]json.RawMessage, error) {
	c, err := s.begin(ModeSign, SignPayload{Events: events})
	if err != nil {
		return nil, err
	}
	value, err := c.await(ctx)
	if err != nil {
		return nil, err
	}
	return value.([]json.RawMessage), nil
}

// Nip04Encrypt encrypts plaintext to pubkey using the extension's NIP-04
// implementation.
func (s *Session) Nip04Encrypt(ctx context.Context, pubkey, plaintext string) (string, error) {
	return s.encryption(ctx, ModeNip04Encrypt, EncryptPayload{PubKey: pubkey, Plaintext: plaintext})
}

// Nip04Decrypt decrypts a NIP-04 ciphertext from pubkey.
func (s *Session) Nip04Decrypt(ctx context.Context, pubkey, ciphertext string) (string, error) {
	return s.encryption(ctx, ModeNip04Decrypt, DecryptPayload{PubKey: pubkey, Ciphertext: ciphertext})
}

// Nip44Encrypt encrypts plaintext to pubkey using the extension's NIP-44
// implementation.
func (s *Session) Nip44Encrypt(ctx context.Context, pubkey, plaintext string) (string, error) {
	return s.encryption(ctx, ModeNip44Encrypt, EncryptPayload{PubKey: pubkey, Plaintext: plaintext})
}

// Nip44Decrypt decrypts a NIP-44 ciphertext from pubkey.
func (s *Session) Nip44Decrypt(ctx context.Context, pubkey, ciphertext string) (string, error) {
	return s.encryption(ctx, ModeNip44Decrypt, DecryptPayload{PubKey: pubkey, Ciphertext: ciphertext})
}

func (s *Session) encryption(ctx context.Context, mode Mode, payload any) (string, error) {
	c, err := s.begin(mode, payload)
	if err != nil {
		return "", err
	}
	value, err := c.await(ctx)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// begin transitions the session out of idle into mode, stores the payload
// and allocates a fresh completion. A completion still pending from an
// earlier operation is rejected as superseded.
func (s *Session) begin(mode Mode, payload any) (*completion, error) {
	s.mu.Lock()
	if s.closed || s.shouldClose {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if stale := s.pending; stale != nil {
		s.pending = nil
		logger.Warnf("operation %s superseded by %s", s.mode, mode)
		stale.reject(ErrSuperseded)
	}
	c := newCompletion()
	s.mode = mode
	s.payload = payload
	s.pending = c
	s.mu.Unlock()

	s.launchBrowser()
	return c, nil
}

// launchBrowser opens the default browser at the session URL, once per
// session. Failure is non-fatal; the user can navigate manually. A short
// delay follows the attempt so the page is loaded before the first poll is
// expected.
func (s *Session) launchBrowser() {
	s.openOnce.Do(func() {
		if !s.cfg.OpenBrowser {
			return
		}
		if err := s.openBrowser(s.URL()); err != nil {
			logger.Warnf("could not open browser automatically: %v", err)
			logger.Infof("Open this URL manually: %s", s.URL())
			return
		}
		time.Sleep(s.cfg.OpenDelay)
	})
}

// settle clears mode and payload and settles the pending completion, if the
// current mode matches and a completion is outstanding. It reports whether
// anything was settled; a mismatched or duplicate submission is a no-op.
// The completion itself is settled outside the lock and never blocks.
func (s *Session) settle(match func(Mode) bool, apply func(*completion)) bool {
	s.mu.Lock()
	if s.pending == nil || !match(s.mode) {
		s.mu.Unlock()
		return false
	}
	c := s.pending
	s.pending = nil
	s.mode = ModeIdle
	s.payload = nil
	s.mu.Unlock()

	apply(c)
	return true
}

// snapshot returns the current mode and payload for /api/state.
func (s *Session) snapshot() (Mode, any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.payload
}

// ShouldClose reports whether the browser tab should self-close.
func (s *Session) ShouldClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldClose
}

// Close is idempotent. It raises the shutdown flag, waits the grace period
// so the tab's shutdown poll can observe it and self-close, rejects any
// outstanding completion and tears down the listener. It does not wait for
// the browser to acknowledge anything.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.shouldClose = true
		s.mu.Unlock()

		time.Sleep(s.cfg.ShutdownGrace)

		s.mu.Lock()
		s.closed = true
		pending := s.pending
		s.pending = nil
		s.mode = ModeIdle
		s.payload = nil
		s.mu.Unlock()

		if pending != nil {
			pending.reject(ErrSessionClosed)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			_ = s.srv.Close()
			s.closeErr = err
		}
		logger.Debugf("bridge session %s closed", s.id)
	})
	return s.closeErr
}
