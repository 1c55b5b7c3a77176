// Package config loads and validates the FlipEdit native-layer
// configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete native-layer configuration.
type Config struct {
	InstanceID string         `yaml:"instance_id"`
	Video      VideoConfig    `yaml:"video"`
	Texture    TextureConfig  `yaml:"texture"`
	Playback   PlaybackConfig `yaml:"playback"`
	Cache      CacheConfig    `yaml:"cache"`
	MQTT       MQTTConfig     `yaml:"mqtt"`
}

// VideoConfig contains decode source settings.
type VideoConfig struct {
	URI        string  `yaml:"uri"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        float64 `yaml:"fps"`
	SourceName string  `yaml:"source_name"`
}

// TextureConfig contains default texture geometry for hosts that do not
// declare one per texture.
type TextureConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PlaybackConfig contains timeline playback settings.
type PlaybackConfig struct {
	FPS         float64 `yaml:"fps"`
	TotalFrames int     `yaml:"total_frames"`
	Loop        bool    `yaml:"loop"`
}

// CacheConfig bounds the preview frame cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// MQTTConfig contains the state emitter settings. An empty broker
// disables the emitter entirely.
type MQTTConfig struct {
	Broker          string     `yaml:"broker"`
	Topics          MQTTTopics `yaml:"topics"`
	StateIntervalMS int        `yaml:"state_interval_ms"`
}

// MQTTTopics contains topic names for the emitter.
type MQTTTopics struct {
	PlaybackState string `yaml:"playback_state"`
	TextureStats  string `yaml:"texture_stats"`
	SourceStats   string `yaml:"source_stats"`
}

// Default returns a configuration with working defaults for a single
// 720p preview texture.
func Default() *Config {
	return &Config{
		InstanceID: "flipedit-native",
		Video: VideoConfig{
			Width:      1280,
			Height:     720,
			FPS:        25.0,
			SourceName: "preview",
		},
		Texture: TextureConfig{
			Width:  1280,
			Height: 720,
		},
		Playback: PlaybackConfig{
			FPS:         30.0,
			TotalFrames: 600,
			Loop:        true,
		},
		Cache: CacheConfig{
			MaxEntries: 240,
		},
		MQTT: MQTTConfig{
			Topics: MQTTTopics{
				PlaybackState: "flipedit/playback/state",
				TextureStats:  "flipedit/textures/stats",
				SourceStats:   "flipedit/source/stats",
			},
			StateIntervalMS: 1000,
		},
	}
}

// Load reads and validates a YAML config file. Fields missing from the
// file keep their Default() values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration that would only blow up later.
func (c *Config) Validate() error {
	if c.InstanceID == "" {
		return fmt.Errorf("config: instance_id is required")
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("config: video geometry %dx%d invalid (dimensions must be positive)",
			c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS < 0.1 || c.Video.FPS > 240 {
		return fmt.Errorf("config: video fps %.2f out of range (0.1-240)", c.Video.FPS)
	}
	if c.Texture.Width <= 0 || c.Texture.Height <= 0 {
		return fmt.Errorf("config: texture geometry %dx%d invalid (dimensions must be positive)",
			c.Texture.Width, c.Texture.Height)
	}
	if c.Playback.FPS < 0.1 || c.Playback.FPS > 240 {
		return fmt.Errorf("config: playback fps %.2f out of range (0.1-240)", c.Playback.FPS)
	}
	if c.Playback.TotalFrames <= 0 {
		return fmt.Errorf("config: playback total_frames must be positive, got %d",
			c.Playback.TotalFrames)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("config: cache max_entries must not be negative, got %d",
			c.Cache.MaxEntries)
	}
	if c.MQTT.Broker != "" {
		if c.MQTT.StateIntervalMS <= 0 {
			return fmt.Errorf("config: mqtt state_interval_ms must be positive, got %d",
				c.MQTT.StateIntervalMS)
		}
		if c.MQTT.Topics.PlaybackState == "" {
			return fmt.Errorf("config: mqtt playback_state topic is required when broker is set")
		}
	}
	return nil
}

// EmitterEnabled reports whether a state emitter should run.
func (c *Config) EmitterEnabled() bool {
	return c.MQTT.Broker != ""
}
