package audio

import "time"

const (
	SampleRate = 48000
	Channels   = 2

	FFTSize  = 2048
	BinCount = FFTSize / 2

	// Analyser behaviour, matching what browsers ship as defaults.
	SmoothingTimeConstant = 0.8
	MinDecibels           = -100.0
	MaxDecibels           = -30.0

	// Input older than this counts as "no source".
	StaleAfter = 500 * time.Millisecond
)

// Sample is one frame's view of the audio signal. FrequencyBands and
// Waveform are byte-scaled (waveform 128 = silence).
type Sample struct {
	FrequencyBands []uint8
	Waveform       []uint8
	Amplitude      float64
}

// Sampler is pulled once per rendered frame and never fails.
type Sampler interface {
	Sample() Sample
}

// Silent is the sampler used when no audio source is available.
type Silent struct{}

func (Silent) Sample() Sample { return Sample{} }
