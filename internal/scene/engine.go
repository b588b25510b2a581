package scene

import (
	"fmt"
	"log"

	"pulseanime/internal/audio"
	"pulseanime/internal/media"
)

// Options configure an Engine at mount time.
type Options struct {
	Width, Height int
	// Seed for particle placement; 0 draws from the clock.
	Seed           uint64
	ScrollDistance float64
	// Script overrides DefaultScript when non-nil.
	Script *Script
	// ParticleCount and MediaWindow override the viewport class when > 0.
	ParticleCount int
	MediaWindow   int
}

// Engine owns every scene component and the GPU resources behind them,
// from one mount to one teardown.
type Engine struct {
	res     *Resources
	dev     Device
	sampler audio.Sampler
	bus     *EventBus

	tunnel    *Tunnel
	ring      *BillboardRing
	landscape *Landscape
	timeline  *Timeline
	camera    *CameraRig

	params         SceneParameters
	scrollDistance float64
	scroll         float64
	pointerX       float64
	pointerY       float64
	elapsed        float64
	lastSample     audio.Sample

	detach  []func()
	closed  bool
	drawBuf []BillboardDraw
}

// NewEngine builds the scene on dev. sampler may be nil (silence).
func NewEngine(dev Device, sampler audio.Sampler, loader TextureLoader, opts Options) (*Engine, error) {
	if sampler == nil {
		sampler = audio.Silent{}
	}
	particles, window := ViewportClass(opts.Width)
	if opts.ParticleCount > 0 {
		particles = opts.ParticleCount
	}
	if opts.MediaWindow > 0 {
		window = opts.MediaWindow
	}
	script := DefaultScript()
	if opts.Script != nil {
		script = *opts.Script
	}
	if opts.ScrollDistance <= 0 {
		opts.ScrollDistance = DefaultScrollDistance
	}

	e := &Engine{
		res:            NewResources(dev),
		dev:            dev,
		sampler:        sampler,
		bus:            NewEventBus(),
		scrollDistance: opts.ScrollDistance,
		camera:         NewCameraRig(opts.Width, opts.Height),
	}

	tl, err := NewTimeline(script, e.bus)
	if err != nil {
		return nil, err
	}
	e.timeline = tl
	e.params = tl.Evaluate(0)

	e.tunnel, err = NewTunnel(e.res, particles, opts.Seed)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.landscape, err = NewLandscape(e.res)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.ring = NewBillboardRing(e.res, loader, window, e.bus)
	if opts.Width > 0 && opts.Height > 0 {
		dev.Resize(opts.Width, opts.Height)
	}
	log.Printf("scene: mounted %d particles, media window %d", particles, window)
	return e, nil
}

// Bus is the engine's event bus (chapter and media notifications).
func (e *Engine) Bus() *EventBus { return e.bus }

func (e *Engine) Tunnel() *Tunnel { return e.tunnel }
func (e *Engine) Ring() *BillboardRing { return e.ring }
func (e *Engine) Landscape() *Landscape { return e.landscape }
func (e *Engine) Camera() *CameraRig { return e.camera }
func (e *Engine) Timeline() *Timeline { return e.timeline }
func (e *Engine) Params() SceneParameters { return e.params }
func (e *Engine) Chapter() ChapterState { return e.timeline.Chapter() }
func (e *Engine) LastSample() audio.Sample { return e.lastSample }
func (e *Engine) Closed() bool { return e.closed }

// ScrollDistance is the scroll budget mapped onto the whole timeline.
func (e *Engine) ScrollDistance() float64 { return e.scrollDistance }

// AttachSource registers the detach func of an input listener; Close runs
// it before any resource is released.
func (e *Engine) AttachSource(detach func()) {
	if e.closed {
		detach()
		return
	}
	e.detach = append(e.detach, detach)
}

// SetScroll scrubs the timeline to a raw scroll offset.
func (e *Engine) SetScroll(offset float64) {
	if e.closed {
		return
	}
	e.scroll = clampF(offset, 0, e.scrollDistance)
	e.params = e.timeline.Scrub(ProgressFromOffset(e.scroll, e.scrollDistance))
}

// Scroll returns the current scroll offset.
func (e *Engine) Scroll() float64 { return e.scroll }

// SetPointer records the latest pointer position in [-1,1], y up.
func (e *Engine) SetPointer(x, y float64) {
	e.pointerX = clampF(x, -1, 1)
	e.pointerY = clampF(y, -1, 1)
}

// Resize updates the projection and output size. Zero sizes are ignored.
func (e *Engine) Resize(width, height int) {
	if e.closed || !e.camera.Resize(width, height) {
		return
	}
	e.dev.Resize(width, height)
}

// SetMediaList replaces the billboards with the visible window of list.
func (e *Engine) SetMediaList(list []media.Descriptor) {
	if e.closed {
		return
	}
	e.ring.SetMediaList(list)
	e.bus.Emit(Event{Type: EventMediaListChanged, Count: len(list)})
}

// Frame runs one update and render pass.
func (e *Engine) Frame(dt float64) {
	if e.closed {
		return
	}
	if !e.timeline.Started() {
		e.SetScroll(e.scroll)
	}
	if dt < 0 {
		dt = 0
	}
	e.elapsed += dt

	s := e.sampler.Sample()
	e.lastSample = s
	amp := s.Amplitude
	p := e.params

	e.tunnel.Update(dt, p.TunnelSpeed, p.TunnelRadius, amp, e.elapsed)
	e.tunnel.Upload()

	e.ring.Poll()
	e.ring.Update(dt, e.elapsed, amp, p.VortexSpin)

	e.landscape.Update(e.elapsed, amp, p.Reveal)

	e.camera.Update(e.pointerX, e.pointerY, p.ParallaxGain)
	e.camera.Z = p.CameraZ

	e.dev.Render(e.frame())
}

func (e *Engine) frame() *Frame {
	e.drawBuf = e.ring.Draws(e.drawBuf[:0])
	return &Frame{
		View:       e.camera.View(),
		Projection: e.camera.Projection(),
		Eye:        e.camera.Eye(),
		Width:      e.camera.Width,
		Height:     e.camera.Height,
		Points:     e.tunnel.Buffer(),
		PointCount: e.tunnel.Count(),
		Billboards: e.drawBuf,
		Landscape:  e.landscape.Draw(),
	}
}

// ResourceCount is the number of live GPU buffers, textures and meshes.
func (e *Engine) ResourceCount() int { return e.res.Count() }

// Close tears the scene down: the loop stops, in-flight loads are canceled,
// listeners detached, then every GPU resource and the surface are released.
// Later calls do nothing.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if e.ring != nil {
		e.ring.Cancel()
	}
	for i := len(e.detach) - 1; i >= 0; i-- {
		e.detach[i]()
	}
	e.detach = nil
	e.bus.Reset()

	if e.tunnel != nil {
		e.tunnel.Close()
	}
	if e.ring != nil {
		e.ring.Close()
	}
	if e.landscape != nil {
		e.landscape.Close()
	}
	leaked := e.res.Count()
	e.dev.Destroy()
	if leaked != 0 {
		return fmt.Errorf("scene: %d GPU resources still live after teardown", leaked)
	}
	return nil
}
