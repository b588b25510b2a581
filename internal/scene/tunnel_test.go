package scene

import (
	"math"
	"testing"
)

func TestNewTunnelBounds(t *testing.T) {
	tn, err := NewTunnel(nil, 500, 42)
	if err != nil {
		t.Fatalf("NewTunnel: %v", err)
	}
	if tn.Count() != 500 {
		t.Fatalf("Count = %d, want 500", tn.Count())
	}
	for i := range tn.Count() {
		if tn.Radius[i] < TunnelMinRadius || tn.Radius[i] >= TunnelMaxRadius {
			t.Fatalf("particle %d radius %v out of [%v,%v)", i, tn.Radius[i], TunnelMinRadius, TunnelMaxRadius)
		}
		if tn.Depth[i] < TunnelFar || tn.Depth[i] > 0 {
			t.Fatalf("particle %d depth %v out of [%v,0]", i, tn.Depth[i], TunnelFar)
		}
		if tn.Angle[i] < 0 || tn.Angle[i] >= 2*math.Pi {
			t.Fatalf("particle %d angle %v out of [0,2π)", i, tn.Angle[i])
		}
	}
}

func TestTunnelSeedDeterministic(t *testing.T) {
	a, _ := NewTunnel(nil, 64, 7)
	b, _ := NewTunnel(nil, 64, 7)
	for i := range a.Count() {
		if a.Depth[i] != b.Depth[i] || a.Angle[i] != b.Angle[i] {
			t.Fatalf("particle %d differs between equal seeds", i)
		}
	}
}

func TestTunnelDepthStaysInRange(t *testing.T) {
	tn, _ := NewTunnel(nil, 300, 3)
	for step := range 2000 {
		amp := float64(step%10) / 10
		tn.Update(1.0/60, 1.4, 2.1, amp, float64(step)/60)
		for i, z := range tn.Depth {
			if z < TunnelFar || z > TunnelNear {
				t.Fatalf("step %d particle %d depth %v out of [%v,%v]", step, i, z, TunnelFar, TunnelNear)
			}
		}
	}
}

func TestTunnelRecyclesToFar(t *testing.T) {
	tn, _ := NewTunnel(nil, 1, 1)
	tn.Depth[0] = 1.95
	tn.Update(0.1, 1.0, 2.0, 0, 0)
	if tn.Depth[0] != TunnelFar {
		t.Errorf("depth = %v, want %v after passing the near bound", tn.Depth[0], TunnelFar)
	}

	tn.Depth[0] = -10
	tn.Update(0.5, 1.0, 2.0, 0, 0)
	if got, want := tn.Depth[0], -9.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("depth = %v, want %v", got, want)
	}
}

func TestTunnelAmplitudeSpeedsUp(t *testing.T) {
	quiet, _ := NewTunnel(nil, 1, 1)
	loud, _ := NewTunnel(nil, 1, 1)
	quiet.Depth[0], loud.Depth[0] = -40, -40

	quiet.Update(0.1, 1.0, 2.0, 0, 0)
	loud.Update(0.1, 1.0, 2.0, 0.5, 0)

	if got, want := loud.Depth[0]-quiet.Depth[0], 0.5*6*0.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("extra advance = %v, want %v", got, want)
	}
	if loud.Radius[0]-quiet.Radius[0] < 0.29 {
		t.Errorf("radius swell = %v, want 0.3", loud.Radius[0]-quiet.Radius[0])
	}
}

func TestTunnelPositionsFollowState(t *testing.T) {
	tn, _ := NewTunnel(nil, 10, 9)
	tn.Update(0.016, 0.5, 2.1, 0.2, 1)
	pos := tn.Positions()
	for i := range tn.Count() {
		x := float64(pos[i*3])
		y := float64(pos[i*3+1])
		r := math.Hypot(x, y)
		if math.Abs(r-tn.Radius[i]) > 1e-4 {
			t.Fatalf("particle %d: |xy| = %v, radius %v", i, r, tn.Radius[i])
		}
		if math.Abs(float64(pos[i*3+2])-tn.Depth[i]) > 1e-4 {
			t.Fatalf("particle %d: z = %v, depth %v", i, pos[i*3+2], tn.Depth[i])
		}
	}
}

func TestTunnelCloseReleasesBuffer(t *testing.T) {
	dev := newFakeDevice()
	res := NewResources(dev)
	tn, err := NewTunnel(res, 100, 5)
	if err != nil {
		t.Fatalf("NewTunnel: %v", err)
	}
	if res.CountKind(KindBuffer) != 1 {
		t.Fatalf("buffers = %d, want 1", res.CountKind(KindBuffer))
	}
	tn.Close()
	tn.Close()
	if res.Count() != 0 {
		t.Errorf("Count = %d after Close, want 0", res.Count())
	}
	if dev.released != 1 {
		t.Errorf("released %d times, want 1", dev.released)
	}
}
