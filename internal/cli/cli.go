// Package cli holds what the ampwave entry points share: common flags,
// config loading with flag overrides and styled console output.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/Alexander-D-Karpov/ampwave/internal/config"
)

var (
	primaryColor = lipgloss.Color("#78A0FF")
	errorColor   = lipgloss.Color("#D04040")
	mutedColor   = lipgloss.Color("#888888")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	keyStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

// Flags are embedded into every command's kong model.
type Flags struct {
	Config  string `help:"Path to config.yaml." type:"path"`
	Debug   bool   `help:"Enable debug logging."`
	Output  string `help:"Audio output: speaker, portaudio or none."`
	Library string `help:"Directory searched when the track is neither a path nor a URL." type:"path"`
	Version bool   `help:"Show version information."`
}

// LoadConfig reads the config file and applies the flags on top of it.
func (f Flags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if err := f.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply overrides cfg with every flag that was set and validates the result.
func (f Flags) Apply(cfg *config.Config) error {
	if f.Debug {
		cfg.Debug = true
	}
	if f.Output != "" {
		cfg.Audio.Output = f.Output
	}
	if f.Library != "" {
		cfg.Library.Dir = f.Library
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

func PrintVersion(w io.Writer, name, version string) {
	fmt.Fprintln(w, titleStyle.Render(name))
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Version:"), valueStyle.Render(version))
}
