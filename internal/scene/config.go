package scene

// Viewport classes. Narrow viewports get a lighter scene.
const (
	NarrowViewport = 640 // px, widths below this are "narrow"

	TunnelCountNarrow = 900
	TunnelCountWide   = 2000

	MediaWindowNarrow = 8
	MediaWindowWide   = 12
)

// Tunnel particles.
const (
	TunnelNear      = 2.0   // depth past which a particle recycles
	TunnelFar       = -80.0 // recycle depth
	TunnelMinRadius = 1.5
	TunnelMaxRadius = 3.0
	TunnelPointSize = 0.03
	TunnelOpacity   = 0.9
)

// Billboard ring layout.
const (
	BillboardHeight    = 1.2
	BillboardMinWidth  = 1.2
	BillboardBaseEmit  = 0.25
	BillboardAudioEmit = 0.75
	BillboardSpin      = 0.15 // rad/s, per billboard
	DefaultAspect      = 16.0 / 9.0
)

// Landscape grid.
const (
	LandscapeSize     = 40.0
	LandscapeSegments = 96
	LandscapeY        = -2.5
)

// Camera.
const (
	CameraFov       = 60.0 // degrees
	CameraNear      = 0.1
	CameraFar       = 200.0
	CameraSmoothing = 0.05
	CameraStartZ    = 6.0
	CameraLookZ     = -2.0
)

// Scroll budget for the whole timeline.
const DefaultScrollDistance = 3200.0

// Fog and clear color (0x070816).
const (
	FogDensity = 0.06
	FogR       = 0x07 / 255.0
	FogG       = 0x08 / 255.0
	FogB       = 0x16 / 255.0
)

// ViewportClass returns the particle count and media window for a surface
// of the given width.
func ViewportClass(width int) (particles, mediaWindow int) {
	if width > 0 && width < NarrowViewport {
		return TunnelCountNarrow, MediaWindowNarrow
	}
	return TunnelCountWide, MediaWindowWide
}
