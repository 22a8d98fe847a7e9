package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/purplebase/nip07-signer/internal/cli"
	"github.com/purplebase/nip07-signer/internal/config"
	"github.com/purplebase/nip07-signer/internal/logger"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

type flags struct {
	port      int
	noBrowser bool
	noQR      bool
	debug     bool
	logLevel  string
	message   string
}

func run() error {
	parsed, args, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	if parsed == nil {
		return nil
	}

	cfg, err := config.Load(config.Overrides{
		Port:        optional(parsed.port, parsed.port >= 0),
		OpenBrowser: optional(!parsed.noBrowser, parsed.noBrowser),
		ShowQR:      optional(!parsed.noQR, parsed.noQR),
		Debug:       optional(true, parsed.debug),
		LogLevel:    optional(parsed.logLevel, parsed.logLevel != ""),
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	} else if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}

	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get-public-key":
		return cli.GetPublicKeyCommand(cfg, os.Stdout)
	case "sign":
		return cli.SignCommand(cfg, os.Stdin, os.Stdout)
	case "nip04-encrypt":
		return encryption(cli.Nip04EncryptCommand, cfg, parsed, rest)
	case "nip04-decrypt":
		return encryption(cli.Nip04DecryptCommand, cfg, parsed, rest)
	case "nip44-encrypt":
		return encryption(cli.Nip44EncryptCommand, cfg, parsed, rest)
	case "nip44-decrypt":
		return encryption(cli.Nip44DecryptCommand, cfg, parsed, rest)
	case "version", "--version", "-v":
		fmt.Printf("nip07-signer v%s\n", version)
		return nil
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type encryptionCommand func(*config.Config, string, string, io.Reader, io.Writer) error

func encryption(command encryptionCommand, cfg *config.Config, parsed *flags, rest []string) error {
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one argument: the counterparty public key (hex)")
	}
	return command(cfg, rest[0], parsed.message, os.Stdin, os.Stdout)
}

func parseFlags(args []string) (*flags, []string, error) {
	fs := flag.NewFlagSet("nip07-signer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	parsed := &flags{}
	fs.IntVar(&parsed.port, "port", -1, "Bridge port (default 17007)")
	fs.BoolVar(&parsed.noBrowser, "no-browser", false, "Do not open the browser; print the URL instead")
	fs.BoolVar(&parsed.noQR, "no-qr", false, "Do not print a QR code of the session URL")
	fs.BoolVar(&parsed.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&parsed.logLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	fs.StringVar(&parsed.message, "message", "", "Message for encrypt/decrypt commands (default: stdin)")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if *showHelp {
		printUsage()
		return nil, nil, nil
	}
	return parsed, fs.Args(), nil
}

// optional returns a pointer to value when set is true, nil otherwise.
func optional[T any](value T, set bool) *T {
	if !set {
		return nil
	}
	return &value
}

func printUsage() {
	fmt.Println(`nip07-signer - sign and encrypt Nostr events with a NIP-07 browser extension

Usage:
  nip07-signer get-public-key            Print the extension's public key
  nip07-signer sign                      Sign events (one JSON event per stdin line)
  nip07-signer nip04-encrypt <pubkey>    NIP-04 encrypt a message to <pubkey>
  nip07-signer nip04-decrypt <pubkey>    NIP-04 decrypt a ciphertext from <pubkey>
  nip07-signer nip44-encrypt <pubkey>    NIP-44 encrypt a message to <pubkey>
  nip07-signer nip44-decrypt <pubkey>    NIP-44 decrypt a ciphertext from <pubkey>
  nip07-signer version                   Show version information
  nip07-signer help                      Show this help message

Each command starts a local loopback server, opens your default browser at
its URL and waits for the signing extension in that tab to complete the
request. Approve the request in the extension popup when prompted.

Environment Variables:
  NIP07_SIGNER_PORT            Bridge port (default: 17007)
  NIP07_SIGNER_NO_BROWSER      Do not auto-open the browser (true/1)
  NIP07_SIGNER_NO_QR           Do not print the QR code (true/1)
  NIP07_SIGNER_OPEN_DELAY      Delay after opening the browser (default: 500ms)
  NIP07_SIGNER_SHUTDOWN_GRACE  Grace before the server closes (default: 1s)
  NIP07_SIGNER_LOG_LEVEL       Log level (trace|debug|info|warn|error)
  DEBUG                        Enable debug logging (true/1)

Flags:
  --port         Bridge port
  --no-browser   Do not open the browser; print the URL instead
  --no-qr        Do not print a QR code of the session URL
  --message      Message for encrypt/decrypt commands (default: stdin)
  --log-level    Log level
  --debug        Enable debug logging

Examples:
  # Print the signer's public key
  nip07-signer get-public-key

  # Sign a batch of events
  cat events.jsonl | nip07-signer sign > signed.jsonl

  # Encrypt a DM without opening the browser automatically
  echo "hello" | nip07-signer --no-browser nip44-encrypt <pubkey>`)
}
