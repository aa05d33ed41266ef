// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hush/internal/denoise"
	"hush/internal/log"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// LoadConfig loads configuration from the YAML file at path. With an empty
// path it looks for "config.yaml" in the working directory and falls back to
// the built-in defaults when there is none. Environment overrides are applied
// after the file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the engine cannot run without.
func (c *Config) Validate() error {
	a := c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %v outside [%d, %d]", ErrInvalid, a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer %d outside [1, %d]", ErrInvalid, a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.Channels != 1 {
		return fmt.Errorf("%w: audio.channels must be 1, got %d", ErrInvalid, a.Channels)
	}
	if a.InputDevice < MinDeviceID || a.OutputDevice < MinDeviceID {
		return fmt.Errorf("%w: device ids must be >= %d", ErrInvalid, MinDeviceID)
	}

	d := c.Denoise
	if _, err := denoise.ParseKind(d.Engine); err != nil {
		return fmt.Errorf("%w: denoise.engine: %w", ErrInvalid, err)
	}
	if d.Strength < 0 || d.Strength > 1 {
		return fmt.Errorf("%w: denoise.strength %v outside [0, 1]", ErrInvalid, d.Strength)
	}

	if c.Monitor.HistorySize < 1 {
		return fmt.Errorf("%w: monitor.history_size must be positive", ErrInvalid)
	}
	if c.Monitor.RefreshInterval <= 0 {
		return fmt.Errorf("%w: monitor.refresh_interval must be positive", ErrInvalid)
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		return fmt.Errorf("%w: recording.bit_depth %d unsupported, use 16 or 24", ErrInvalid, c.Recording.BitDepth)
	}

	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("%w: transport.udp_target_address %q missing port", ErrInvalid, c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive", ErrInvalid)
		}
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// applyEnvOverrides reads ENV_* variables over the loaded values. Values
// that fail to parse are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	envBool("ENV_DEBUG", &c.Debug)
	envString("ENV_LOG_LEVEL", &c.LogLevel)

	envInt("ENV_INPUT_DEVICE", &c.Audio.InputDevice)
	envInt("ENV_OUTPUT_DEVICE", &c.Audio.OutputDevice)

	envString("ENV_DENOISE_ENGINE", &c.Denoise.Engine)
	envFloat("ENV_STRENGTH", &c.Denoise.Strength)

	envBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	envDuration("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)

	envBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
}

func envString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		log.Debugf("configuration: %s overrides value: %q", key, val)
	}
}

func envBool(key string, dst *bool) {
	envParse(key, dst, strconv.ParseBool)
}

func envInt(key string, dst *int) {
	envParse(key, dst, strconv.Atoi)
}

func envFloat(key string, dst *float64) {
	envParse(key, dst, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func envDuration(key string, dst *time.Duration) {
	envParse(key, dst, time.ParseDuration)
}

func envParse[T any](key string, dst *T, parse func(string) (T, error)) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v, err := parse(strings.TrimSpace(val))
	if err != nil {
		log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = v
	log.Debugf("configuration: %s overrides value: %v", key, v)
}
