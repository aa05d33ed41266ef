package config

import (
	"time"

	"hush/internal/denoise"
)

// Core configuration constants that define the boundaries and defaults
// for the pass-through engine.
const (
	DefaultSampleRate      = 48000 // Hz
	DefaultFramesPerBuffer = 480   // 10ms at 48kHz
	DefaultChannels        = 1     // processing is mono
	DefaultStrength        = 1.0   // fully wet
	DefaultHistorySize     = 100   // ~1s of level history
	DefaultEngine          = string(denoise.KindSpectral)
	DefaultRefreshInterval = 33 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID     = -1 // -1 selects by name preference
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
)

// Config represents the application configuration, loaded from YAML and
// then overridden by ENV_* variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Denoise   DenoiseConfig   `yaml:"denoise"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds device and stream settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 to pick by name preference.
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index, -1 to pick by name preference.
	SampleRate      float64 `yaml:"sample_rate"`       // Stream sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Callback size; also the denoise frame size.
	Channels        int     `yaml:"channels"`          // Must be 1.
	LowLatency      bool    `yaml:"low_latency"`       // Use the devices' low latency hints.
}

// DenoiseConfig selects and tunes the denoise engine.
type DenoiseConfig struct {
	Engine          string  `yaml:"engine"`           // spectral, rnnoise, gate or passthrough.
	Strength        float64 `yaml:"strength"`         // Initial wet/dry mix in [0,1].
	OverSubtraction float64 `yaml:"over_subtraction"` // Spectral engine only.
	Floor           float64 `yaml:"floor"`            // Spectral engine only.
	Smoothing       float64 `yaml:"smoothing"`        // Spectral engine only.
	LearningFrames  int     `yaml:"learning_frames"`  // Spectral engine only.
	GateThreshold   float64 `yaml:"gate_threshold"`   // Gate engine only.
}

// MonitorConfig controls the observer side.
type MonitorConfig struct {
	HistorySize     int           `yaml:"history_size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	TUI             bool          `yaml:"tui"`
}

// RecordingConfig holds settings for capturing the processed output.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig holds settings for publishing levels to remote observers.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			OutputDevice:    MinDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      true,
		},
		Denoise: DenoiseConfig{
			Engine:          DefaultEngine,
			Strength:        DefaultStrength,
			OverSubtraction: 2.0,
			Floor:           0.05,
			Smoothing:       0.6,
			LearningFrames:  20,
			GateThreshold:   0.01,
		},
		Monitor: MonitorConfig{
			HistorySize:     DefaultHistorySize,
			RefreshInterval: DefaultRefreshInterval,
			TUI:             true,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  DefaultRefreshInterval,
			WebSocketAddress: ":8080",
		},
	}
}

// DenoiseParams converts the file level settings into an engine config.
func (c *Config) DenoiseParams() (denoise.Config, error) {
	kind, err := denoise.ParseKind(c.Denoise.Engine)
	if err != nil {
		return denoise.Config{}, err
	}
	return denoise.Config{
		Kind:            kind,
		FrameSize:       c.Audio.FramesPerBuffer,
		OverSubtraction: c.Denoise.OverSubtraction,
		Floor:           c.Denoise.Floor,
		Smoothing:       c.Denoise.Smoothing,
		LearningFrames:  c.Denoise.LearningFrames,
		GateThreshold:   float32(c.Denoise.GateThreshold),
	}, nil
}
