package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/duty"
	"github.com/roach88/hapsync/internal/transport"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HAPSYNC_"

// Config is the full runtime configuration.
type Config struct {
	Timeline string `yaml:"timeline" env:"TIMELINE"`

	// PreSendOffset is added to the playback time before cues are compared,
	// so commands leave early by the expected one-way latency.
	PreSendOffset time.Duration `yaml:"pre_send_offset" env:"PRE_SEND_OFFSET"`
	TickRate      int           `yaml:"tick_rate" env:"TICK_RATE"`
	LogPackets    bool          `yaml:"log_packets" env:"LOG_PACKETS"`

	Strength Strength `yaml:"strength" envPrefix:"STRENGTH_"`
	Motors   []int    `yaml:"motors" env:"MOTORS" envSeparator:","`

	Network Network `yaml:"network" envPrefix:"NETWORK_"`
	Serial  Serial  `yaml:"serial" envPrefix:"SERIAL_"`
	Audio   Audio   `yaml:"audio" envPrefix:"AUDIO_"`

	// Journal is the SQLite file dispatches are recorded to. Empty disables
	// journaling.
	Journal string `yaml:"journal" env:"JOURNAL"`
}

// Strength is the motor output range a non-zero duty is mapped into.
type Strength struct {
	Min int `yaml:"min" env:"MIN"`
	Max int `yaml:"max" env:"MAX"`
}

// Range returns s as a duty.Range.
func (s Strength) Range() duty.Range {
	return duty.Range{Min: s.Min, Max: s.Max}
}

// Network configures the UDP channel.
type Network struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Address      string        `yaml:"address" env:"ADDRESS"`
	Port         int           `yaml:"port" env:"PORT"`
	Redundancy   int           `yaml:"redundancy" env:"REDUNDANCY"`
	SendTimeout  time.Duration `yaml:"send_timeout" env:"SEND_TIMEOUT"`
	Legacy       bool          `yaml:"legacy" env:"LEGACY"`
	PingCount    int           `yaml:"ping_count" env:"PING_COUNT"`
	PingInterval time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
}

// UDP returns the transport settings for the channel.
func (n Network) UDP() transport.UDPConfig {
	return transport.UDPConfig{
		Address:     n.Address,
		Port:        n.Port,
		SendTimeout: n.SendTimeout,
		Legacy:      n.Legacy,
	}
}

// Serial configures the wired channel.
type Serial struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Port         string        `yaml:"port" env:"PORT"`
	Baud         int           `yaml:"baud" env:"BAUD"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	Settle       time.Duration `yaml:"settle" env:"SETTLE"`
}

// Transport returns the transport settings for the channel.
func (s Serial) Transport() transport.SerialConfig {
	return transport.SerialConfig{
		Port:         s.Port,
		Baud:         s.Baud,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		Settle:       s.Settle,
	}
}

// Audio configures the speaker channel.
type Audio struct {
	Enabled    bool    `yaml:"enabled" env:"ENABLED"`
	Frequency  float64 `yaml:"frequency" env:"FREQUENCY"`
	SampleRate int     `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Channels   int     `yaml:"channels" env:"CHANNELS"`
	Waveform   float64 `yaml:"waveform" env:"WAVEFORM"`
	MaxVolume  float64 `yaml:"max_volume" env:"MAX_VOLUME"`
	Boost      float64 `yaml:"boost" env:"BOOST"`
	Smoothing  float64 `yaml:"smoothing" env:"SMOOTHING"`
}

// Synth returns the synthesis parameters.
func (a Audio) Synth() audio.Config {
	return audio.Config{
		Frequency:  a.Frequency,
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		Waveform:   a.Waveform,
		MaxVolume:  a.MaxVolume,
		Boost:      a.Boost,
		Smoothing:  a.Smoothing,
	}
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	ac := audio.DefaultConfig()
	return Config{
		Timeline:      "timeline.json",
		PreSendOffset: 30 * time.Millisecond,
		TickRate:      60,
		Strength:      Strength{Min: 30, Max: 60},
		Motors:        []int{0, 1},
		Network: Network{
			Enabled:      true,
			Address:      "192.168.1.87",
			Port:         12345,
			Redundancy:   3,
			SendTimeout:  transport.DefaultSendTimeout,
			PingCount:    3,
			PingInterval: 100 * time.Millisecond,
		},
		Serial: Serial{
			Baud:         transport.DefaultBaud,
			ReadTimeout:  transport.DefaultSerialTimeout,
			WriteTimeout: transport.DefaultSerialTimeout,
			Settle:       transport.DefaultSettle,
		},
		Audio: Audio{
			Frequency:  ac.Frequency,
			SampleRate: ac.SampleRate,
			Channels:   ac.Channels,
			Waveform:   ac.Waveform,
			MaxVolume:  ac.MaxVolume,
			Boost:      ac.Boost,
			Smoothing:  ac.Smoothing,
		},
	}
}

// Load resolves the configuration from path (optional) and the
// environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML from r over the values already in cfg. Unknown keys are
// rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg from HAPSYNC_* variables.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, nil)
}

func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// OffsetSeconds returns the pre-send offset in seconds.
func (c Config) OffsetSeconds() float64 {
	return c.PreSendOffset.Seconds()
}

// TickInterval returns the host loop period.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}
