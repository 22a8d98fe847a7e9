package cli

import (
	"fmt"
	"os"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/purplebase/nip07-signer/internal/config"
	"github.com/purplebase/nip07-signer/internal/logger"
)

// announce tells the user where the signing page lives. When the browser is
// not auto-opened the URL (and a QR code, on a terminal) is the only way in.
func announce(cfg *config.Config, url string) {
	if cfg.OpenBrowser {
		logger.Infof("Opening %s in your browser...", url)
	} else {
		logger.Infof("Open this URL in a browser with a NIP-07 extension:\n%s", url)
	}

	if cfg.ShowQR && term.IsTerminal(int(os.Stderr.Fd())) {
		printQRCode(url)
	}

	logger.Infof("Waiting for the extension...")
}

// printQRCode prints a QR code for the session URL to the terminal.
func printQRCode(data string) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		logger.Warnf("Failed to generate QR code: %v", err)
		return
	}
	fmt.Fprint(os.Stderr, qr.ToSmallString(false))
}
