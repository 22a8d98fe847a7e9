// Package cli implements the nip07-signer subcommands. Each command starts
// one bridge session, issues one operation and prints its result; the real
// work happens in the browser extension.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nbd-wtf/go-nostr"

	"github.com/purplebase/nip07-signer/internal/bridge"
	"github.com/purplebase/nip07-signer/internal/config"
	"github.com/purplebase/nip07-signer/internal/logger"
)

// maxEventLine bounds a single stdin event line.
const maxEventLine = 1 << 20

// GetPublicKeyCommand prints the extension's public key to out.
func GetPublicKeyCommand(cfg *config.Config, out io.Writer) error {
	return withSession(cfg, func(ctx context.Context, s *bridge.Session) error {
		pubkey, err := s.GetPublicKey(ctx)
		if err != nil {
			return err
		}
		if !nostr.IsValid32ByteHex(pubkey) {
			return fmt.Errorf("signer returned an invalid public key %q", pubkey)
		}
		fmt.Fprintln(out, pubkey)
		return nil
	})
}

// SignCommand reads one unsigned event JSON object per line from in, signs
// the whole batch in one bridge operation and writes one signed event per
// line to out. A failed batch produces no output at all.
func SignCommand(cfg *config.Config, in io.Reader, out io.Writer) error {
	events, err := readEvents(in)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events on stdin (expected one JSON event per line)")
	}

	return withSession(cfg, func(ctx context.Context, s *bridge.Session) error {
		logger.Infof("Requesting signatures for %d event(s)...", len(events))
		signed, err := s.SignEvents(ctx, events)
		if err != nil {
			return err
		}
		if err := checkSignedBatch(signed); err != nil {
			return err
		}
		for _, raw := range signed {
			fmt.Fprintln(out, string(raw))
		}
		return nil
	})
}

// Nip04EncryptCommand encrypts message to pubkey with the extension's NIP-04
// implementation and prints the ciphertext.
func Nip04EncryptCommand(cfg *config.Config, pubkey, message string, in io.Reader, out io.Writer) error {
	return encryptionCommand(cfg, pubkey, message, in, out, (*bridge.Session).Nip04Encrypt)
}

// Nip04DecryptCommand decrypts a NIP-04 ciphertext from pubkey and prints
// the plaintext.
func Nip04DecryptCommand(cfg *config.Config, pubkey, message string, in io.Reader, out io.Writer) error {
	return encryptionCommand(cfg, pubkey, message, in, out, (*bridge.Session).Nip04Decrypt)
}

// Nip44EncryptCommand encrypts message to pubkey with the extension's NIP-44
// implementation and prints the ciphertext.
func Nip44EncryptCommand(cfg *config.Config, pubkey, message string, in io.Reader, out io.Writer) error {
	return encryptionCommand(cfg, pubkey, message, in, out, (*bridge.Session).Nip44Encrypt)
}

// Nip44DecryptCommand decrypts a NIP-44 ciphertext from pubkey and prints
// the plaintext.
func Nip44DecryptCommand(cfg *config.Config, pubkey, message string, in io.Reader, out io.Writer) error {
	return encryptionCommand(cfg, pubkey, message, in, out, (*bridge.Session).Nip44Decrypt)
}

type encryptionOp func(*bridge.Session, context.Context, string, string) (string, error)

func encryptionCommand(cfg *config.Config, pubkey, message string, in io.Reader, out io.Writer, op encryptionOp) error {
	if !nostr.IsValid32ByteHex(pubkey) {
		return fmt.Errorf("invalid public key %q (expected 64 hex characters)", pubkey)
	}

	if message == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read message from stdin: %w", err)
		}
		message = strings.TrimRight(string(data), "\n")
	}
	if message == "" {
		return fmt.Errorf("empty message (pass --message or pipe it on stdin)")
	}

	return withSession(cfg, func(ctx context.Context, s *bridge.Session) error {
		result, err := op(s, ctx, pubkey, message)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result)
		return nil
	})
}

// withSession runs fn against a fresh bridge session. SIGINT/SIGTERM cancel
// the operation; the session is always closed, which gives the browser tab
// its chance to self-close.
func withSession(cfg *config.Config, fn func(context.Context, *bridge.Session) error) error {
	s, err := bridge.NewSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warnf("failed to close bridge session: %v", err)
		}
	}()

	announce(cfg, s.URL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, s); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted")
		}
		return err
	}
	return nil
}

// readEvents reads one JSON event per line and validates each parses as a
// Nostr event. The raw bytes are what travels through the bridge.
func readEvents(in io.Reader) ([]json.RawMessage, error) {
	var events []json.RawMessage
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var evt nostr.Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			return nil, fmt.Errorf("line %d is not a valid event: %w", line, err)
		}
		events = append(events, json.RawMessage(raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

// checkSignedBatch verifies the signer returned well-formed signed events.
func checkSignedBatch(signed []json.RawMessage) error {
	for i, raw := range signed {
		var evt nostr.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return fmt.Errorf("signed event %d is not valid JSON: %w", i, err)
		}
		if evt.ID == "" || evt.Sig == "" {
			return fmt.Errorf("signed event %d is missing id or sig", i)
		}
		if ok, err := evt.CheckSignature(); err != nil || !ok {
			return fmt.Errorf("signed event %d has an invalid signature", i)
		}
	}
	return nil
}
