// Package themes holds the fyne theme of the desktop player. Its accent and
// dark background follow the live waveform's colours, so the scope, the
// played part of the preview and the controls read as one widget.
package themes

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

const (
	VariantDark   = "dark"
	VariantLight  = "light"
	VariantSystem = "system"
)

var darkPalette = map[fyne.ThemeColorName]color.Color{
	theme.ColorNameButton:            color.NRGBA{R: 45, G: 45, B: 50, A: 255},
	theme.ColorNameDisabled:          color.NRGBA{R: 80, G: 80, B: 85, A: 255},
	theme.ColorNameError:             color.NRGBA{R: 255, G: 85, B: 85, A: 255},
	theme.ColorNameForeground:        color.NRGBA{R: 250, G: 250, B: 252, A: 255},
	theme.ColorNameHover:             color.NRGBA{R: 55, G: 55, B: 65, A: 255},
	theme.ColorNameInputBackground:   color.NRGBA{R: 35, G: 35, B: 40, A: 255},
	theme.ColorNameOverlayBackground: color.NRGBA{A: 200},
	theme.ColorNamePressed:           color.NRGBA{R: 75, G: 75, B: 85, A: 255},
	theme.ColorNameSeparator:         color.NRGBA{R: 60, G: 60, B: 70, A: 255},
}

var lightPalette = map[fyne.ThemeColorName]color.Color{
	theme.ColorNameBackground: color.NRGBA{R: 248, G: 249, B: 250, A: 255},
	theme.ColorNameButton:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	theme.ColorNameDisabled:   color.NRGBA{R: 140, G: 150, B: 160, A: 255},
	theme.ColorNameError:      color.NRGBA{R: 220, G: 53, B: 69, A: 255},
	theme.ColorNameForeground: color.NRGBA{R: 33, G: 37, B: 41, A: 255},
	theme.ColorNameHover:      color.NRGBA{R: 240, G: 242, B: 245, A: 255},
	theme.ColorNamePressed:    color.NRGBA{R: 220, G: 225, B: 230, A: 255},
	theme.ColorNameSeparator:  color.NRGBA{R: 218, G: 220, B: 224, A: 255},
}

type Theme struct {
	variant string
	accent  color.Color
	dark    map[fyne.ThemeColorName]color.Color
}

var _ fyne.Theme = (*Theme)(nil)

// NewTheme builds the theme for variant ("dark", "light" or "system").
// accent replaces the primary, focus and selection colours; background is the
// dark variant's window background. Either may be nil to keep the defaults.
func NewTheme(variant string, accent, background color.Color) *Theme {
	t := &Theme{variant: variant, accent: accent, dark: darkPalette}
	if background != nil {
		t.dark = make(map[fyne.ThemeColorName]color.Color, len(darkPalette)+1)
		for k, v := range darkPalette {
			t.dark[k] = v
		}
		t.dark[theme.ColorNameBackground] = background
	}
	return t
}

func (t *Theme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch t.variant {
	case VariantDark:
		variant = theme.VariantDark
	case VariantLight:
		variant = theme.VariantLight
	}

	if t.accent != nil {
		switch name {
		case theme.ColorNamePrimary, theme.ColorNameFocus:
			return t.accent
		case theme.ColorNameSelection:
			return withAlpha(t.accent, 80)
		}
	}

	palette := lightPalette
	if variant == theme.VariantDark {
		palette = t.dark
	}
	if c, ok := palette[name]; ok {
		return c
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *Theme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *Theme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 8
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameText:
		return 14
	default:
		return theme.DefaultTheme().Size(name)
	}
}

func withAlpha(c color.Color, a uint8) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}
