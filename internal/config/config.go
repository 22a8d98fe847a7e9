package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPort is the loopback port the bridge binds when nothing else is
// configured.
const DefaultPort = 17007

// Config holds bridge configuration.
type Config struct {
	// Port is the loopback port for the HTTP server. 0 asks the OS for a
	// free port.
	Port int
	// OpenBrowser controls whether the default browser is launched at the
	// session URL.
	OpenBrowser bool
	// ShowQR controls whether the session URL is printed as a terminal QR
	// code.
	ShowQR bool
	// OpenDelay is the grace given to the browser to load the page after
	// launching it.
	OpenDelay time.Duration
	// ShutdownGrace is how long close() waits for the browser's shutdown
	// poll to observe the flag before the listener is torn down.
	ShutdownGrace time.Duration
	Debug         bool
	LogLevel      string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Port        *int
	OpenBrowser *bool
	ShowQR      *bool
	Debug       *bool
	LogLevel    *string
}

// Load loads bridge configuration from environment variables and applies any
// explicit overrides. A .env file in the working directory is honored when
// present.
func Load(overrides Overrides) (*Config, error) {
	// Best-effort; a missing .env is the normal case.
	_ = godotenv.Load()

	port := DefaultPort
	if portStr := os.Getenv("NIP07_SIGNER_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p < 0 || p > 65535 {
			return nil, fmt.Errorf("invalid NIP07_SIGNER_PORT %q", portStr)
		}
		port = p
	}
	if overrides.Port != nil {
		port = *overrides.Port
	}

	openDelay := 500 * time.Millisecond
	if raw := os.Getenv("NIP07_SIGNER_OPEN_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid NIP07_SIGNER_OPEN_DELAY %q", raw)
		}
		openDelay = d
	}

	shutdownGrace := time.Second
	if raw := os.Getenv("NIP07_SIGNER_SHUTDOWN_GRACE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid NIP07_SIGNER_SHUTDOWN_GRACE %q", raw)
		}
		shutdownGrace = d
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	logLevel := os.Getenv("NIP07_SIGNER_LOG_LEVEL")
	if overrides.LogLevel != nil {
		logLevel = *overrides.LogLevel
	}

	openBrowser := true
	if raw := os.Getenv("NIP07_SIGNER_NO_BROWSER"); raw == "true" || raw == "1" {
		openBrowser = false
	}
	if overrides.OpenBrowser != nil {
		openBrowser = *overrides.OpenBrowser
	}

	showQR := true
	if raw := os.Getenv("NIP07_SIGNER_NO_QR"); raw == "true" || raw == "1" {
		showQR = false
	}
	if overrides.ShowQR != nil {
		showQR = *overrides.ShowQR
	}

	return &Config{
		Port:          port,
		OpenBrowser:   openBrowser,
		ShowQR:        showQR,
		OpenDelay:     openDelay,
		ShutdownGrace: shutdownGrace,
		Debug:         debug,
		LogLevel:      logLevel,
	}, nil
}
