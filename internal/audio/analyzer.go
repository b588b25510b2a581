package audio

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const ringLen = FFTSize * 8

// Analyzer turns tapped PCM into per-frame Samples. Tap may be called from
// any goroutine; Sample belongs to the frame thread.
type Analyzer struct {
	mu       sync.Mutex
	ring     []float32 // mono
	writePos int
	filled   int
	lastTap  time.Time

	now func() time.Time

	// Frame-thread scratch.
	plan     *algofft.Plan[complex128]
	snap     []float32
	window   []float64
	input    []complex128
	spectrum []complex128
	smoothed []float64
}

func NewAnalyzer() (*Analyzer, error) {
	win := window.Generate(window.TypeBlackman, FFTSize, window.WithPeriodic())
	if len(win) != FFTSize {
		return nil, fmt.Errorf("analyzer window size: %d", len(win))
	}
	plan, err := algofft.NewPlan64(FFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer fft plan: %w", err)
	}
	return &Analyzer{
		ring:     make([]float32, ringLen),
		now:      time.Now,
		plan:     plan,
		snap:     make([]float32, FFTSize),
		window:   win,
		input:    make([]complex128, FFTSize),
		spectrum: make([]complex128, FFTSize),
		smoothed: make([]float64, BinCount),
	}, nil
}

// Tap appends interleaved int16 PCM with the given channel count, mixed
// down to mono.
func (a *Analyzer) Tap(pcm []int16, channels int) {
	if channels <= 0 {
		channels = 1
	}
	a.mu.Lock()
	for i := 0; i+channels-1 < len(pcm); i += channels {
		var sum float32
		for c := range channels {
			sum += float32(pcm[i+c]) / 32768
		}
		a.ring[a.writePos] = sum / float32(channels)
		a.writePos = (a.writePos + 1) % ringLen
		if a.filled < ringLen {
			a.filled++
		}
	}
	a.lastTap = a.now()
	a.mu.Unlock()
}

// Reset forgets all tapped audio.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.filled = 0
	a.writePos = 0
	a.lastTap = time.Time{}
	a.mu.Unlock()
	clear(a.smoothed)
}

// snapshot copies the newest FFTSize samples, oldest first. It reports false
// when no recent input exists.
func (a *Analyzer) snapshot() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.filled == 0 || a.now().Sub(a.lastTap) > StaleAfter {
		return false
	}
	start := (a.writePos - FFTSize + ringLen) % ringLen
	for i := range a.snap {
		a.snap[i] = a.ring[(start+i)%ringLen]
	}
	return true
}

// Sample analyzes the latest window. With no live input it returns the zero
// Sample.
func (a *Analyzer) Sample() Sample {
	if !a.snapshot() {
		clear(a.smoothed)
		return Sample{}
	}

	wave := make([]uint8, FFTSize)
	var sum float64
	for i, v := range a.snap {
		b := math.Floor(128 * (1 + float64(v)))
		b = math.Max(0, math.Min(255, b))
		wave[i] = uint8(b)
		d := (b - 128) / 128
		sum += d * d
	}

	bands := make([]uint8, BinCount)
	for i, v := range a.snap {
		a.input[i] = complex(float64(v)*a.window[i], 0)
	}
	if err := a.plan.Forward(a.spectrum, a.input); err != nil {
		// A failed transform decays the bands like silence.
		clear(a.spectrum)
	}

	scale := 255 / (MaxDecibels - MinDecibels)
	for k := range BinCount {
		mag := cmplx.Abs(a.spectrum[k]) / FFTSize
		a.smoothed[k] = SmoothingTimeConstant*a.smoothed[k] + (1-SmoothingTimeConstant)*mag
		db := MinDecibels
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := (db - MinDecibels) * scale
		bands[k] = uint8(math.Max(0, math.Min(255, v)))
	}

	return Sample{
		FrequencyBands: bands,
		Waveform:       wave,
		Amplitude:      math.Sqrt(sum / FFTSize),
	}
}
