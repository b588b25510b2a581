package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

type HandleKind uint8

const (
	KindBuffer HandleKind = iota
	KindTexture
	KindMesh
)

func (k HandleKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	}
	return "unknown"
}

// Handle names a GPU-resident object owned by a Device.
type Handle struct {
	Kind HandleKind
	ID   uint32
}

// Device is the GPU surface the engine draws into. Every method is called
// from the frame thread only.
type Device interface {
	// CreatePoints allocates a point buffer; positions and colors hold
	// xyz/rgb triples.
	CreatePoints(positions, colors []float32) (Handle, error)
	UpdatePoints(h Handle, positions []float32)
	CreateTexture(img *image.RGBA) (Handle, error)
	// CreateQuad builds a w x h quad centered at the origin in the XY plane.
	CreateQuad(w, h float32) (Handle, error)
	// CreateGrid builds a size x size plane subdivided into segments^2 cells.
	CreateGrid(size float32, segments int) (Handle, error)
	Release(h Handle)
	Resize(width, height int)
	Render(f *Frame)
	// Destroy releases the render surface itself.
	Destroy()
}

// Frame is everything the device needs to draw one frame.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3
	Width      int
	Height     int

	Points     Handle
	PointCount int

	Billboards []BillboardDraw
	Landscape  LandscapeDraw
}

type BillboardDraw struct {
	Mesh     Handle
	Texture  Handle
	Model    mgl32.Mat4
	Emissive float32
}

type LandscapeDraw struct {
	Mesh      Handle
	Model     mgl32.Mat4
	Time      float32
	Amplitude float32
	Reveal    float32
}

// Resources wraps a Device and tracks the handles it has handed out, so
// release is idempotent and the live count can be queried.
type Resources struct {
	dev  Device
	live map[Handle]struct{}
}

func NewResources(dev Device) *Resources {
	return &Resources{dev: dev, live: make(map[Handle]struct{})}
}

func (r *Resources) track(h Handle, err error) (Handle, error) {
	if err != nil {
		return Handle{}, err
	}
	r.live[h] = struct{}{}
	return h, nil
}

func (r *Resources) CreatePoints(positions, colors []float32) (Handle, error) {
	return r.track(r.dev.CreatePoints(positions, colors))
}

func (r *Resources) UpdatePoints(h Handle, positions []float32) {
	if _, ok := r.live[h]; ok {
		r.dev.UpdatePoints(h, positions)
	}
}

func (r *Resources) CreateTexture(img *image.RGBA) (Handle, error) {
	return r.track(r.dev.CreateTexture(img))
}

func (r *Resources) CreateQuad(w, h float32) (Handle, error) {
	return r.track(r.dev.CreateQuad(w, h))
}

func (r *Resources) CreateGrid(size float32, segments int) (Handle, error) {
	return r.track(r.dev.CreateGrid(size, segments))
}

// Release frees h once; later calls with the same handle are no-ops.
func (r *Resources) Release(h Handle) {
	if _, ok := r.live[h]; !ok {
		return
	}
	delete(r.live, h)
	r.dev.Release(h)
}

// Count returns the number of live handles.
func (r *Resources) Count() int { return len(r.live) }

// CountKind returns the number of live handles of one kind.
func (r *Resources) CountKind(k HandleKind) int {
	n := 0
	for h := range r.live {
		if h.Kind == k {
			n++
		}
	}
	return n
}
