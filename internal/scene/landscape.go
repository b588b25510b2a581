package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Landscape colors: violet valleys, cyan crests.
var (
	LandscapeLow  = [3]float64{0x7c / 255.0, 0x3a / 255.0, 0xed / 255.0}
	LandscapeHigh = [3]float64{0x22 / 255.0, 0xd3 / 255.0, 0xee / 255.0}
)

// Displacement is the height of the surface at grid point (x, y). The
// vertex shader computes the same expression.
func Displacement(x, y, t, amplitude float64) float64 {
	return math.Sin(x*2+t*0.8) * math.Cos(y*2+t*0.6) * (0.6 + amplitude*2)
}

// SurfaceColor blends the two landscape colors by displacement.
func SurfaceColor(d float64) (r, g, b float64) {
	k := 0.5 + 0.5*d
	return lerp(LandscapeLow[0], LandscapeHigh[0], k),
		lerp(LandscapeLow[1], LandscapeHigh[1], k),
		lerp(LandscapeLow[2], LandscapeHigh[2], k)
}

// SurfaceAlpha is the fragment opacity for a reveal fraction and displacement.
func SurfaceAlpha(reveal, d float64) float64 {
	return Smoothstep(0, 1, reveal) * (0.4 + 0.6*math.Abs(d))
}

// Landscape is the displaced heightfield under the tunnel. Only uniforms
// change per frame; the grid itself is static.
type Landscape struct {
	Time      float64
	Amplitude float64
	Reveal    float64

	res    *Resources
	mesh   Handle
	model  mgl32.Mat4
	closed bool
}

func NewLandscape(res *Resources) (*Landscape, error) {
	l := &Landscape{
		res: res,
		model: mgl32.Translate3D(0, LandscapeY, 0).
			Mul4(mgl32.HomogRotate3DX(-math.Pi / 2)),
	}
	if res != nil {
		h, err := res.CreateGrid(LandscapeSize, LandscapeSegments)
		if err != nil {
			return nil, fmt.Errorf("landscape grid: %w", err)
		}
		l.mesh = h
	}
	return l, nil
}

// Update sets the surface uniforms. reveal is clamped to [0,1].
func (l *Landscape) Update(elapsed, amplitude, reveal float64) {
	l.Time = elapsed
	l.Amplitude = amplitude
	l.Reveal = clampF(reveal, 0, 1)
}

func (l *Landscape) Draw() LandscapeDraw {
	return LandscapeDraw{
		Mesh:      l.mesh,
		Model:     l.model,
		Time:      float32(l.Time),
		Amplitude: float32(l.Amplitude),
		Reveal:    float32(l.Reveal),
	}
}

func (l *Landscape) Close() {
	if l.closed {
		return
	}
	l.closed = true
	if l.res != nil {
		l.res.Release(l.mesh)
	}
}
