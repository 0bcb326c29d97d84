package term

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Back     key.Binding
	Forward  key.Binding
	Louder   key.Binding
	Quieter  key.Binding
	Spectrum key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Back:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-10s")),
		Forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+10s")),
		Louder:   key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑", "vol+")),
		Quieter:  key.NewBinding(key.WithKeys("down", "-"), key.WithHelp("↓", "vol-")),
		Spectrum: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "spectrum")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Back, k.Forward, k.Louder, k.Quieter, k.Spectrum, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
