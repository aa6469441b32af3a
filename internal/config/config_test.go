package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hapsync/internal/transport"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Millisecond, cfg.PreSendOffset)
	assert.InDelta(t, 0.03, cfg.OffsetSeconds(), 1e-12)
	assert.Equal(t, []int{0, 1}, cfg.Motors)
	assert.Equal(t, 3, cfg.Network.Redundancy)
	assert.Equal(t, 12345, cfg.Network.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 0.95, cfg.Audio.Smoothing)
	assert.Equal(t, time.Second/60, cfg.TickInterval())
}

func TestDecode_OverlaysDefaults(t *testing.T) {
	cfg := Default()
	src := `
pre_send_offset: 10ms
strength: {min: 20, max: 80}
motors: [2]
network:
  address: 10.0.0.7
  legacy: true
serial:
  enabled: true
  port: /dev/ttyACM0
  settle: 0s
`
	require.NoError(t, Decode(strings.NewReader(src), &cfg))

	assert.Equal(t, 10*time.Millisecond, cfg.PreSendOffset)
	assert.Equal(t, Strength{Min: 20, Max: 80}, cfg.Strength)
	assert.Equal(t, []int{2}, cfg.Motors)
	assert.Equal(t, "10.0.0.7", cfg.Network.Address)
	assert.True(t, cfg.Network.Legacy)
	assert.Equal(t, 12345, cfg.Network.Port, "untouched default")
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Zero(t, cfg.Serial.Settle)
}

func TestDecode_UnknownKey(t *testing.T) {
	cfg := Default()
	err := Decode(strings.NewReader("netwerk: {}\n"), &cfg)
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader(""), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, map[string]string{
		"HAPSYNC_NETWORK_ADDRESS": "127.0.0.1",
		"HAPSYNC_NETWORK_PORT":    "9000",
		"HAPSYNC_MOTORS":          "0,1,2",
		"HAPSYNC_AUDIO_ENABLED":   "true",
		"HAPSYNC_AUDIO_BOOST":     "2.5",
		"HAPSYNC_PRE_SEND_OFFSET": "50ms",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Network.Address)
	assert.Equal(t, 9000, cfg.Network.Port)
	assert.Equal(t, []int{0, 1, 2}, cfg.Motors)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 2.5, cfg.Audio.Boost)
	assert.Equal(t, 50*time.Millisecond, cfg.PreSendOffset)
	assert.Equal(t, 0.95, cfg.Audio.Smoothing, "unset variables keep their value")
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, map[string]string{"HAPSYNC_NETWORK_PORT": "many"})
	assert.Error(t, err)
}

func TestValidate_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"hostname", func(c *Config) { c.Network.Address = "esp32.local" }, "network.address"},
		{"port zero", func(c *Config) { c.Network.Port = 0 }, "network.port"},
		{"port high", func(c *Config) { c.Network.Port = 70000 }, "network.port"},
		{"redundancy", func(c *Config) { c.Network.Redundancy = 0 }, "network.redundancy"},
		{"strength", func(c *Config) { c.Strength = Strength{Min: 60, Max: 30} }, "strength"},
		{"negative offset", func(c *Config) { c.PreSendOffset = -time.Millisecond }, "pre_send_offset"},
		{"no motors", func(c *Config) { c.Motors = nil }, "motors"},
		{"serial port", func(c *Config) { c.Serial.Enabled = true }, "serial.port"},
		{"smoothing", func(c *Config) { c.Audio.Enabled = true; c.Audio.Smoothing = 1 }, "audio.smoothing"},
		{"nothing enabled", func(c *Config) { c.Network.Enabled = false }, "channels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, transport.IsConfig(err))

			fields := FieldErrors(err)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestValidate_LegacyNeedsNoMotors(t *testing.T) {
	cfg := Default()
	cfg.Network.Legacy = true
	cfg.Motors = nil
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hapsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 120\nnetwork:\n  address: 127.0.0.1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.TickRate)
	assert.Equal(t, "127.0.0.1", cfg.Network.Address)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hapsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  port: -1\n"), 0o644))

	_, err := Load(path)
	assert.True(t, transport.IsConfig(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
