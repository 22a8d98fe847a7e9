package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, DefaultPort, cfg.Port)
	require.True(t, cfg.OpenBrowser)
	require.True(t, cfg.ShowQR)
	require.Equal(t, 500*time.Millisecond, cfg.OpenDelay)
	require.Equal(t, time.Second, cfg.ShutdownGrace)
	require.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NIP07_SIGNER_PORT", "18100")
	t.Setenv("NIP07_SIGNER_NO_BROWSER", "1")
	t.Setenv("NIP07_SIGNER_NO_QR", "true")
	t.Setenv("NIP07_SIGNER_OPEN_DELAY", "250ms")
	t.Setenv("NIP07_SIGNER_SHUTDOWN_GRACE", "2s")
	t.Setenv("DEBUG", "1")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, 18100, cfg.Port)
	require.False(t, cfg.OpenBrowser)
	require.False(t, cfg.ShowQR)
	require.Equal(t, 250*time.Millisecond, cfg.OpenDelay)
	require.Equal(t, 2*time.Second, cfg.ShutdownGrace)
	require.True(t, cfg.Debug)
}

func TestLoadOverridesBeatEnvironment(t *testing.T) {
	t.Setenv("NIP07_SIGNER_PORT", "18100")

	port := 0
	openBrowser := false
	cfg, err := Load(Overrides{Port: &port, OpenBrowser: &openBrowser})
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Port)
	require.False(t, cfg.OpenBrowser)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("NIP07_SIGNER_PORT", "not-a-port")
	_, err := Load(Overrides{})
	require.Error(t, err)

	t.Setenv("NIP07_SIGNER_PORT", "70000")
	_, err = Load(Overrides{})
	require.Error(t, err)

	t.Setenv("NIP07_SIGNER_PORT", "17007")
	t.Setenv("NIP07_SIGNER_SHUTDOWN_GRACE", "soon")
	_, err = Load(Overrides{})
	require.Error(t, err)
}
