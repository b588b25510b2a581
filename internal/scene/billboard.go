package scene

import (
	"context"
	"image"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"pulseanime/internal/media"
)

// TextureLoader decodes the pixels behind a media descriptor. Load runs on
// its own goroutine and must honor ctx.
type TextureLoader interface {
	Load(ctx context.Context, d media.Descriptor) (*image.RGBA, error)
}

// Billboard is one media quad of the ring.
type Billboard struct {
	Index   int
	URL     string
	Aspect  float64
	Width   float64
	Height  float64
	Radius  float64
	Angle   float64
	OffsetY float64
	Depth   float64
	Yaw     float64 // facing, starts at Angle+π
	Emit    float64

	texture Handle
	mesh    Handle
}

// Position returns the billboard center in ring space.
func (b *Billboard) Position() (x, y, z float64) {
	return math.Cos(b.Angle) * b.Radius, b.OffsetY, b.Depth
}

// Placement computes the ring slot of item i out of n.
func Placement(i, n int) (radius, angle, offsetY, depth float64) {
	if n <= 0 {
		n = 1
	}
	radius = 3 + float64(i%6)*0.35
	angle = float64(i) / float64(n) * 2 * math.Pi
	offsetY = -0.2 + float64(i%5)*0.15
	depth = -2 - float64(i)*0.8
	return
}

// BillboardSize returns the quad size for a media aspect ratio. Height is
// fixed; width follows the aspect but never drops below BillboardMinWidth.
func BillboardSize(aspect float64) (w, h float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = DefaultAspect
	}
	h = BillboardHeight
	w = math.Max(BillboardMinWidth, h*aspect)
	return w, h
}

type loadResult struct {
	index int
	url   string
	img   *image.RGBA
}

// loadBatch is one SetMediaList generation. Its results channel holds one
// slot per item so loaders never block.
type loadBatch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results chan loadResult
	count   int
}

// BillboardRing owns the media quads. Loads run concurrently; the frame
// thread picks finished textures up in Poll.
type BillboardRing struct {
	res    *Resources
	loader TextureLoader
	window int
	bus    *EventBus

	batch *loadBatch
	items []*Billboard

	Yaw float64
}

func NewBillboardRing(res *Resources, loader TextureLoader, window int, bus *EventBus) *BillboardRing {
	if window <= 0 {
		window = MediaWindowWide
	}
	return &BillboardRing{res: res, loader: loader, window: window, bus: bus}
}

// Window is the maximum number of live billboards.
func (r *BillboardRing) Window() int { return r.window }

// Billboards returns the live billboards in arrival order.
func (r *BillboardRing) Billboards() []*Billboard { return r.items }

func (r *BillboardRing) Len() int { return len(r.items) }

// SetMediaList supersedes the current list: in-flight loads are canceled,
// every billboard is released and the visible window of list is loaded.
func (r *BillboardRing) SetMediaList(list []media.Descriptor) {
	r.cancel()
	r.releaseAll()

	n := min(len(list), r.window)
	if n == 0 || r.loader == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &loadBatch{
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan loadResult, n),
		count:   n,
	}
	r.batch = b

	loader := r.loader
	for i, d := range list[:n] {
		go func() {
			img, err := loader.Load(ctx, d)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("scene: skipping media %q: %v", d.URL, err)
				return
			}
			b.results <- loadResult{index: i, url: d.URL, img: img}
		}()
	}
}

// Poll uploads every texture the current batch has finished decoding.
func (r *BillboardRing) Poll() {
	b := r.batch
	if b == nil {
		return
	}
	for {
		select {
		case res := <-b.results:
			if b.ctx.Err() != nil || r.batch != b {
				return
			}
			r.add(b, res)
		default:
			return
		}
	}
}

func (r *BillboardRing) add(b *loadBatch, res loadResult) {
	if res.img == nil || len(r.items) >= r.window {
		return
	}
	bounds := res.img.Bounds()
	aspect := DefaultAspect
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		aspect = float64(bounds.Dx()) / float64(bounds.Dy())
	}
	w, h := BillboardSize(aspect)

	tex, err := r.res.CreateTexture(res.img)
	if err != nil {
		log.Printf("scene: texture for %q: %v", res.url, err)
		return
	}
	mesh, err := r.res.CreateQuad(float32(w), float32(h))
	if err != nil {
		r.res.Release(tex)
		log.Printf("scene: quad for %q: %v", res.url, err)
		return
	}

	radius, angle, offsetY, depth := Placement(res.index, b.count)
	r.items = append(r.items, &Billboard{
		Index:   res.index,
		URL:     res.url,
		Aspect:  aspect,
		Width:   w,
		Height:  h,
		Radius:  radius,
		Angle:   angle,
		OffsetY: offsetY,
		Depth:   depth,
		Yaw:     angle + math.Pi,
		Emit:    BillboardBaseEmit,
		texture: tex,
		mesh:    mesh,
	})
	if r.bus != nil {
		r.bus.Emit(Event{Type: EventBillboardAdded, Count: len(r.items)})
	}
}

// Update spins the ring and its billboards and drives their glow.
func (r *BillboardRing) Update(dt, elapsed, amplitude, spinRate float64) {
	r.Yaw += (0.05 + amplitude*0.5) * dt * spinRate
	emit := BillboardBaseEmit + amplitude*BillboardAudioEmit
	for i, b := range r.items {
		b.Depth += math.Sin(elapsed*0.6+float64(i)) * 0.001
		b.Yaw += BillboardSpin * dt
		b.Emit = emit
	}
}

// Draws appends the draw list for the live billboards.
func (r *BillboardRing) Draws(dst []BillboardDraw) []BillboardDraw {
	ring := mgl32.HomogRotate3DY(float32(r.Yaw))
	for _, b := range r.items {
		x, y, z := b.Position()
		model := ring.
			Mul4(mgl32.Translate3D(float32(x), float32(y), float32(z))).
			Mul4(mgl32.HomogRotate3DY(float32(b.Yaw)))
		dst = append(dst, BillboardDraw{
			Mesh:     b.mesh,
			Texture:  b.texture,
			Model:    model,
			Emissive: float32(b.Emit),
		})
	}
	return dst
}

func (r *BillboardRing) cancel() {
	if r.batch == nil {
		return
	}
	r.batch.cancel()
	r.batch = nil
}

func (r *BillboardRing) releaseAll() {
	for _, b := range r.items {
		r.res.Release(b.texture)
		r.res.Release(b.mesh)
	}
	r.items = r.items[:0]
}

// Cancel stops in-flight loads without touching live billboards.
func (r *BillboardRing) Cancel() { r.cancel() }

// Close cancels loads and releases every billboard.
func (r *BillboardRing) Close() {
	r.cancel()
	r.releaseAll()
}
