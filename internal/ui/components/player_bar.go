package components

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Volume slider bounds. Values go to the gain node unchanged.
const (
	VolumeMin = -1.0
	VolumeMax = 1.0
)

// PlayerBar holds the transport controls: play/pause, the seek slider with
// time readout, the volume slider and a level meter.
type PlayerBar struct {
	controls types.PlayerControl
	log      zerolog.Logger

	container *fyne.Container
	playBtn   *widget.Button
	seekBar   *widget.Slider
	volumeBar *widget.Slider
	volumeBtn *widget.Button
	timeLabel *widget.Label
	level     *LevelMeter

	paused                  bool
	seekingProgrammatically bool
	settingVolume           bool
	userSeeking             bool
	lastDuration            float64
}

func NewPlayerBar(controls types.PlayerControl, logger zerolog.Logger) *PlayerBar {
	pb := &PlayerBar{
		controls: controls,
		log:      logger,
		paused:   true,
	}
	pb.setupWidgets()
	pb.setupLayout()
	return pb
}

func (pb *PlayerBar) setupWidgets() {
	pb.playBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), pb.togglePlay)
	pb.playBtn.Importance = widget.HighImportance

	pb.seekBar = widget.NewSlider(0, 1)
	pb.seekBar.Step = 0.01
	pb.seekBar.OnChanged = pb.onSeekChanged
	pb.seekBar.OnChangeEnded = pb.onSeekEnded

	pb.volumeBar = widget.NewSlider(VolumeMin, VolumeMax)
	pb.volumeBar.Step = 0.01
	pb.volumeBar.OnChanged = pb.onVolumeChange

	pb.volumeBtn = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	pb.volumeBtn.Importance = widget.LowImportance

	pb.timeLabel = widget.NewLabel("0:00 / 0:00")
	pb.timeLabel.TextStyle = fyne.TextStyle{Monospace: true}

	pb.level = NewLevelMeter()
}

func (pb *PlayerBar) setupLayout() {
	timeSeek := container.NewBorder(nil, nil, pb.timeLabel, nil, pb.seekBar)

	volume := container.NewBorder(nil, nil, pb.volumeBtn, nil, pb.volumeBar)
	volume = container.NewGridWrap(fyne.NewSize(180, volume.MinSize().Height), volume)

	pb.container = container.NewBorder(
		nil, pb.level,
		pb.playBtn, volume,
		timeSeek,
	)
}

// Update reflects v into the controls. A seek in progress is not overridden.
func (pb *PlayerBar) Update(v player.View) {
	pb.lastDuration = v.Duration

	if v.Paused != pb.paused {
		pb.paused = v.Paused
		pb.updatePlayButton()
	}

	if pb.volumeBar.Value != v.Volume {
		pb.settingVolume = true
		pb.volumeBar.SetValue(v.Volume)
		pb.settingVolume = false
		pb.updateVolumeIcon(v.Volume)
	}

	if pb.userSeeking {
		return
	}
	if v.Duration > 0 {
		pb.seekingProgrammatically = true
		pb.seekBar.Max = v.Duration
		pb.seekBar.SetValue(min(v.Position, v.Duration))
		pb.seekingProgrammatically = false
		pb.timeLabel.SetText(fmt.Sprintf("%s / %s", formatSeconds(v.Position), formatSeconds(v.Duration)))
	} else {
		pb.timeLabel.SetText(fmt.Sprintf("%s / --:--", formatSeconds(v.Position)))
	}
}

// SetPaused updates the play button from a play-changed event.
func (pb *PlayerBar) SetPaused(paused bool) {
	pb.paused = paused
	pb.updatePlayButton()
}

func (pb *PlayerBar) SetLevel(v float64) { pb.level.SetValue(v) }

func (pb *PlayerBar) onSeekChanged(value float64) {
	if pb.seekingProgrammatically {
		return
	}

	pb.userSeeking = true
	if pb.lastDuration > 0 {
		pb.timeLabel.SetText(fmt.Sprintf("%s / %s", formatSeconds(value), formatSeconds(pb.lastDuration)))
	}
}

func (pb *PlayerBar) onSeekEnded(value float64) {
	pb.userSeeking = false

	if pb.seekingProgrammatically {
		return
	}

	if err := pb.controls.Seek(value); err != nil {
		pb.log.Warn().Err(err).Msg("seek failed")
	}
}

func (pb *PlayerBar) togglePlay() {
	if err := pb.controls.TogglePlayPause(context.Background()); err != nil {
		pb.log.Warn().Err(err).Msg("toggle playback failed")
	}
}

func (pb *PlayerBar) onVolumeChange(v float64) {
	if pb.settingVolume {
		return
	}
	pb.controls.SetVolume(v)
	pb.updateVolumeIcon(v)
}

func (pb *PlayerBar) updatePlayButton() {
	if pb.paused {
		pb.playBtn.SetIcon(theme.MediaPlayIcon())
	} else {
		pb.playBtn.SetIcon(theme.MediaPauseIcon())
	}
}

func (pb *PlayerBar) updateVolumeIcon(v float64) {
	switch {
	case v <= 0:
		pb.volumeBtn.SetIcon(theme.VolumeMuteIcon())
	case v < 0.5:
		pb.volumeBtn.SetIcon(theme.VolumeDownIcon())
	default:
		pb.volumeBtn.SetIcon(theme.VolumeUpIcon())
	}
}

func (pb *PlayerBar) Container() *fyne.Container {
	return pb.container
}

func formatSeconds(s float64) string {
	d := time.Duration(s * float64(time.Second))
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
