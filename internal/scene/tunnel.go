package scene

import (
	"fmt"
	"math"
	"time"
)

// Tunnel is the particle corridor the camera flies through. Particles are
// kept as parallel arrays; positions is the interleaved xyz copy streamed
// to the point buffer.
type Tunnel struct {
	Angle  []float64
	Radius []float64
	Depth  []float64

	positions []float32
	colors    []float32

	res    *Resources
	buffer Handle
	closed bool
}

// NewTunnel allocates count particles. A zero seed draws one from the clock,
// so each run looks different.
func NewTunnel(res *Resources, count int, seed uint64) (*Tunnel, error) {
	if count <= 0 {
		count = TunnelCountWide
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := NewRand(seed)

	t := &Tunnel{
		Angle:     make([]float64, count),
		Radius:    make([]float64, count),
		Depth:     make([]float64, count),
		positions: make([]float32, count*3),
		colors:    make([]float32, count*3),
		res:       res,
	}
	for i := range count {
		t.Angle[i] = r.RangeF(0, 2*math.Pi)
		t.Radius[i] = r.RangeF(TunnelMinRadius, TunnelMaxRadius)
		t.Depth[i] = r.RangeF(TunnelFar, 0)
		t.writePosition(i)

		cr, cg, cb := hslToRGB(0.66+float64(i)/float64(count)*0.2, 0.8, 0.5)
		t.colors[i*3+0] = float32(cr)
		t.colors[i*3+1] = float32(cg)
		t.colors[i*3+2] = float32(cb)
	}

	if res != nil {
		h, err := res.CreatePoints(t.positions, t.colors)
		if err != nil {
			return nil, fmt.Errorf("tunnel buffer: %w", err)
		}
		t.buffer = h
	}
	return t, nil
}

func (t *Tunnel) Count() int { return len(t.Depth) }

// Buffer returns the point buffer handle.
func (t *Tunnel) Buffer() Handle { return t.buffer }

// Positions returns the interleaved xyz array (shared, not a copy).
func (t *Tunnel) Positions() []float32 { return t.positions }

func (t *Tunnel) writePosition(i int) {
	s, c := math.Sincos(t.Angle[i])
	t.positions[i*3+0] = float32(c * t.Radius[i])
	t.positions[i*3+1] = float32(s * t.Radius[i])
	t.positions[i*3+2] = float32(t.Depth[i])
}

// Update advances every particle toward the camera. Particles that pass the
// near bound jump back to the far bound; nothing else is recycled.
func (t *Tunnel) Update(dt, speed, baseRadius, amplitude, elapsed float64) {
	if dt <= 0 {
		return
	}
	advance := (speed + amplitude*6) * dt
	turn := dt * (0.3 + amplitude)
	swell := amplitude * 0.6
	phase := elapsed * 0.6

	for i := range t.Depth {
		z := t.Depth[i] + advance
		if z > TunnelNear {
			z = TunnelFar
		}
		t.Depth[i] = z
		t.Angle[i] = math.Mod(t.Angle[i]+turn, 2*math.Pi)
		t.Radius[i] = baseRadius + math.Sin(phase+float64(i))*0.15 + swell
		t.writePosition(i)
	}
}

// Upload streams the current positions to the GPU.
func (t *Tunnel) Upload() {
	if t.res == nil || t.closed {
		return
	}
	t.res.UpdatePoints(t.buffer, t.positions)
}

// Close releases the point buffer. Safe to call more than once.
func (t *Tunnel) Close() {
	if t.closed {
		return
	}
	t.closed = true
	if t.res != nil {
		t.res.Release(t.buffer)
	}
}
