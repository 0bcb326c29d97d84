package audio

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/config"
)

// Output is the device an audio context renders into. Everything handed to
// Play is pulled from the device goroutine while the output lock is held, so
// streamer state shared with other goroutines must be touched under Lock.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close() error
}

// NewOutput opens the backend named by cfg.Audio.Output.
func NewOutput(cfg *config.Config, logger zerolog.Logger) (Output, error) {
	sr := beep.SampleRate(cfg.Audio.SampleRate)

	switch cfg.Audio.Output {
	case config.OutputSpeaker:
		return NewSpeakerOutput(sr, cfg.Audio.BufferSize, logger)
	case config.OutputPortAudio:
		return NewPortAudioOutput(sr, cfg.Audio.BufferSize, logger)
	case config.OutputNone:
		out := NewHeadlessOutput(sr)
		go out.Run(20 * time.Millisecond)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown audio output %q", cfg.Audio.Output)
	}
}

var speakerInitialized = false
var speakerMutex sync.Mutex

// SpeakerOutput plays through beep's speaker package. The speaker is process
// wide, so it is initialised once no matter how many outputs are opened.
type SpeakerOutput struct {
	sampleRate beep.SampleRate
	log        zerolog.Logger
}

func NewSpeakerOutput(sampleRate beep.SampleRate, maxBuffer int, logger zerolog.Logger) (*SpeakerOutput, error) {
	o := &SpeakerOutput{sampleRate: sampleRate, log: logger}
	if err := o.initializeSpeaker(maxBuffer); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return o, nil
}

func (o *SpeakerOutput) initializeSpeaker(maxBuffer int) error {
	speakerMutex.Lock()
	defer speakerMutex.Unlock()

	if speakerInitialized {
		o.log.Debug().Msg("speaker already initialized")
		return nil
	}

	bufferSize := o.sampleRate.N(time.Second / 10)
	if runtime.GOOS == "linux" {
		bufferSize = o.sampleRate.N(time.Second / 5)
	}
	if maxBuffer > 0 && maxBuffer < bufferSize {
		bufferSize = maxBuffer
	}

	o.log.Debug().
		Int("sample_rate", int(o.sampleRate)).
		Int("buffer_size", bufferSize).
		Str("os", runtime.GOOS).
		Msg("initializing speaker")

	if err := speaker.Init(o.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("speaker initialization failed: %w", err)
	}

	speakerInitialized = true
	return nil
}

func (o *SpeakerOutput) SampleRate() beep.SampleRate { return o.sampleRate }
func (o *SpeakerOutput) Play(s beep.Streamer)        { speaker.Play(s) }
func (o *SpeakerOutput) Lock()                       { speaker.Lock() }
func (o *SpeakerOutput) Unlock()                     { speaker.Unlock() }

func (o *SpeakerOutput) Close() error {
	speaker.Clear()
	return nil
}

// PortAudioOutput drives a default PortAudio stream from a beep mixer.
type PortAudioOutput struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	mixer      beep.Mixer
	tmp        [][2]float64
	stream     *portaudio.Stream
	log        zerolog.Logger
}

func NewPortAudioOutput(sampleRate beep.SampleRate, maxBuffer int, logger zerolog.Logger) (*PortAudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialization failed: %w", err)
	}

	framesPerBuffer := sampleRate.N(20 * time.Millisecond)
	if maxBuffer > 0 && maxBuffer < framesPerBuffer {
		framesPerBuffer = maxBuffer
	}

	o := &PortAudioOutput{
		sampleRate: sampleRate,
		tmp:        make([][2]float64, framesPerBuffer),
		log:        logger,
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), framesPerBuffer, o.process)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	o.stream = stream

	logger.Debug().
		Int("sample_rate", int(sampleRate)).
		Int("frames_per_buffer", framesPerBuffer).
		Msg("portaudio stream started")

	return o, nil
}

func (o *PortAudioOutput) process(out [][]float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(out[0])
	if cap(o.tmp) < n {
		o.tmp = make([][2]float64, n)
	}
	tmp := o.tmp[:n]
	o.mixer.Stream(tmp)
	for i := range tmp {
		out[0][i] = float32(tmp[i][0])
		out[1][i] = float32(tmp[i][1])
	}
}

func (o *PortAudioOutput) SampleRate() beep.SampleRate { return o.sampleRate }

func (o *PortAudioOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

func (o *PortAudioOutput) Lock()   { o.mu.Lock() }
func (o *PortAudioOutput) Unlock() { o.mu.Unlock() }

func (o *PortAudioOutput) Close() error {
	if o.stream == nil {
		return nil
	}
	if err := o.stream.Stop(); err != nil {
		o.log.Debug().Err(err).Msg("failed to stop portaudio stream")
	}
	err := o.stream.Close()
	o.stream = nil
	if termErr := portaudio.Terminate(); err == nil {
		err = termErr
	}
	return err
}

// HeadlessOutput discards audio. Samples are pulled by Run in real time, or
// on demand with Drain.
type HeadlessOutput struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	mixer      beep.Mixer
	buf        [][2]float64
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHeadlessOutput(sampleRate beep.SampleRate) *HeadlessOutput {
	return &HeadlessOutput{
		sampleRate: sampleRate,
		done:       make(chan struct{}),
	}
}

func (o *HeadlessOutput) SampleRate() beep.SampleRate { return o.sampleRate }

func (o *HeadlessOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

func (o *HeadlessOutput) Lock()   { o.mu.Lock() }
func (o *HeadlessOutput) Unlock() { o.mu.Unlock() }

// Drain pulls n samples through everything that is playing and returns a copy
// of the mix.
func (o *HeadlessOutput) Drain(n int) [][2]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cap(o.buf) < n {
		o.buf = make([][2]float64, n)
	}
	buf := o.buf[:n]
	o.mixer.Stream(buf)
	return append([][2]float64(nil), buf...)
}

// Run drains one interval's worth of samples per tick until Close.
func (o *HeadlessOutput) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := o.sampleRate.N(interval)
	for {
		select {
		case <-ticker.C:
			_ = o.Drain(n)
		case <-o.done:
			return
		}
	}
}

func (o *HeadlessOutput) Close() error {
	o.closeOnce.Do(func() {
		close(o.done)
		o.mu.Lock()
		o.mixer.Clear()
		o.mu.Unlock()
	})
	return nil
}
