package scene

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"pulseanime/internal/media"
)

// fakeDevice hands out sequential handles and records what is live.
type fakeDevice struct {
	next      uint32
	live      map[Handle]bool
	released  int
	frames    []*Frame
	width     int
	height    int
	destroyed int
	failTex   bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{live: make(map[Handle]bool)}
}

func (d *fakeDevice) alloc(k HandleKind) Handle {
	d.next++
	h := Handle{Kind: k, ID: d.next}
	d.live[h] = true
	return h
}

func (d *fakeDevice) CreatePoints(positions, colors []float32) (Handle, error) {
	return d.alloc(KindBuffer), nil
}

func (d *fakeDevice) UpdatePoints(h Handle, positions []float32) {}

func (d *fakeDevice) CreateTexture(img *image.RGBA) (Handle, error) {
	if d.failTex {
		return Handle{}, errors.New("out of texture memory")
	}
	return d.alloc(KindTexture), nil
}

func (d *fakeDevice) CreateQuad(w, h float32) (Handle, error) { return d.alloc(KindMesh), nil }

func (d *fakeDevice) CreateGrid(size float32, segments int) (Handle, error) {
	return d.alloc(KindMesh), nil
}

func (d *fakeDevice) Release(h Handle) {
	delete(d.live, h)
	d.released++
}

func (d *fakeDevice) Resize(width, height int) { d.width, d.height = width, height }

func (d *fakeDevice) Render(f *Frame) {
	cp := *f
	cp.Billboards = append([]BillboardDraw(nil), f.Billboards...)
	d.frames = append(d.frames, &cp)
}

func (d *fakeDevice) Destroy() { d.destroyed++ }

func (d *fakeDevice) lastFrame() *Frame {
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

// imageLoader returns a w×h image for every descriptor, or an error for
// URLs listed in fail.
type imageLoader struct {
	w, h int
	fail map[string]bool

	mu    sync.Mutex
	calls int
}

func (l *imageLoader) Load(ctx context.Context, d media.Descriptor) (*image.RGBA, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if l.fail[d.URL] {
		return nil, media.ErrUnsupported
	}
	return image.NewRGBA(image.Rect(0, 0, l.w, l.h)), nil
}

func (l *imageLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestResourcesReleaseIdempotent(t *testing.T) {
	dev := newFakeDevice()
	res := NewResources(dev)

	h, err := res.CreateQuad(1, 1)
	if err != nil {
		t.Fatalf("CreateQuad: %v", err)
	}
	if res.Count() != 1 {
		t.Fatalf("Count = %d, want 1", res.Count())
	}
	res.Release(h)
	res.Release(h)
	if res.Count() != 0 {
		t.Errorf("Count = %d, want 0", res.Count())
	}
	if dev.released != 1 {
		t.Errorf("device saw %d releases, want 1", dev.released)
	}
}

func TestResourcesCountKind(t *testing.T) {
	res := NewResources(newFakeDevice())
	res.CreatePoints([]float32{0, 0, 0}, []float32{1, 1, 1})
	res.CreateQuad(1, 1)
	res.CreateGrid(4, 2)
	res.CreateTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)))

	if got := res.CountKind(KindMesh); got != 2 {
		t.Errorf("meshes = %d, want 2", got)
	}
	if got := res.CountKind(KindBuffer); got != 1 {
		t.Errorf("buffers = %d, want 1", got)
	}
	if got := res.CountKind(KindTexture); got != 1 {
		t.Errorf("textures = %d, want 1", got)
	}
}

func TestResourcesFailedCreateNotTracked(t *testing.T) {
	dev := newFakeDevice()
	dev.failTex = true
	res := NewResources(dev)
	if _, err := res.CreateTexture(image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Fatal("expected error")
	}
	if res.Count() != 0 {
		t.Errorf("Count = %d, want 0", res.Count())
	}
}
