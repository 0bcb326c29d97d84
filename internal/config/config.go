package config

import (
	"errors"
	"fmt"
	"image/color"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alexander-D-Karpov/ampwave/internal/platform"
)

const (
	OutputSpeaker   = "speaker"
	OutputPortAudio = "portaudio"
	OutputNone      = "none"
)

type Config struct {
	Debug bool `mapstructure:"debug"`

	Audio struct {
		SampleRate      int     `mapstructure:"sample_rate"`
		BufferSize      int     `mapstructure:"buffer_size"`
		DefaultVolume   float64 `mapstructure:"default_volume"`
		Output          string  `mapstructure:"output"`
		PlatformOptimal bool    `mapstructure:"platform_optimal"`
	} `mapstructure:"audio"`

	Fetch struct {
		Timeout   int    `mapstructure:"timeout"`
		Retries   int    `mapstructure:"retries"`
		UserAgent string `mapstructure:"user_agent"`
		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			BurstSize         int `mapstructure:"burst_size"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"fetch"`

	Preview struct {
		NumBars int `mapstructure:"num_bars"`
	} `mapstructure:"preview"`

	Render struct {
		FPS             int     `mapstructure:"fps"`
		Width           int     `mapstructure:"width"`
		Height          int     `mapstructure:"height"`
		LineWidth       float64 `mapstructure:"line_width"`
		StrokeColor     string  `mapstructure:"stroke_color"`
		BackgroundColor string  `mapstructure:"background_color"`
	} `mapstructure:"render"`

	UI struct {
		Theme        string `mapstructure:"theme"`
		WindowWidth  int    `mapstructure:"window_width"`
		WindowHeight int    `mapstructure:"window_height"`
	} `mapstructure:"ui"`

	Library struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"library"`
}

// Load reads config.yaml from configPath, or from the platform config dir,
// ./configs and . when configPath is empty. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir, err := platform.GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AMPWAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	optimizeForPlatform(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func DefaultMobileConfig() *Config {
	cfg := Default()
	cfg.UI.WindowWidth = 400
	cfg.UI.WindowHeight = 800
	cfg.Audio.BufferSize = 16384
	cfg.Render.FPS = 30
	cfg.Render.Width = 360
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.buffer_size", getDefaultBufferSize())
	v.SetDefault("audio.default_volume", 0.7)
	v.SetDefault("audio.output", OutputSpeaker)
	v.SetDefault("audio.platform_optimal", true)

	v.SetDefault("fetch.timeout", 30)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.user_agent", "ampwave/1.0")
	v.SetDefault("fetch.rate_limit.requests_per_second", 10)
	v.SetDefault("fetch.rate_limit.burst_size", 2)

	v.SetDefault("preview.num_bars", 200)

	v.SetDefault("render.fps", 60)
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 160)
	v.SetDefault("render.line_width", 2.0)
	v.SetDefault("render.stroke_color", "#78A0FF")
	v.SetDefault("render.background_color", "#121214")

	v.SetDefault("ui.theme", "dark")
	v.SetDefault("ui.window_width", 840)
	v.SetDefault("ui.window_height", 420)

	v.SetDefault("library.dir", "")
}

func getDefaultBufferSize() int {
	switch runtime.GOOS {
	case "linux":
		return 16384
	case "windows", "darwin":
		return 8192
	default:
		return 16384
	}
}

func optimizeForPlatform(cfg *Config) {
	if !cfg.Audio.PlatformOptimal {
		return
	}

	switch runtime.GOOS {
	case "linux":
		if cfg.Audio.BufferSize < 8192 {
			cfg.Audio.BufferSize = 16384
		}
	case "android", "ios":
		cfg.Audio.BufferSize = 16384
		cfg.Render.FPS = 30
	}
}

// Validate rejects values the player cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	switch c.Audio.Output {
	case OutputSpeaker, OutputPortAudio, OutputNone:
	default:
		return fmt.Errorf("audio.output must be one of %s, %s, %s: got %q",
			OutputSpeaker, OutputPortAudio, OutputNone, c.Audio.Output)
	}
	if c.Preview.NumBars <= 0 {
		return fmt.Errorf("preview.num_bars must be positive, got %d", c.Preview.NumBars)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	if _, err := ParseColor(c.Render.StrokeColor); err != nil {
		return fmt.Errorf("render.stroke_color: %w", err)
	}
	if _, err := ParseColor(c.Render.BackgroundColor); err != nil {
		return fmt.Errorf("render.background_color: %w", err)
	}
	return nil
}

// ParseHexColor parses RRGGBB with an optional leading '#'.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// ParseColor is ParseHexColor returning an opaque color.NRGBA.
func ParseColor(s string) (color.NRGBA, error) {
	r, g, b, err := ParseHexColor(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
