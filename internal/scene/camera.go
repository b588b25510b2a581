package scene

import "github.com/go-gl/mathgl/mgl32"

// CameraRig eases toward the pointer on x/y. Z belongs to the timeline.
type CameraRig struct {
	X, Y, Z float64

	Aspect float64
	Width  int
	Height int
}

func NewCameraRig(width, height int) *CameraRig {
	c := &CameraRig{Z: CameraStartZ, Aspect: 1}
	c.Resize(width, height)
	return c
}

// Update moves x/y a fixed fraction toward pointer*gain. pointerX/Y are in
// [-1,1], y up.
func (c *CameraRig) Update(pointerX, pointerY, gain float64) {
	c.X += (pointerX*gain - c.X) * CameraSmoothing
	c.Y += (pointerY*gain - c.Y) * CameraSmoothing
}

// Resize recomputes the aspect ratio. Degenerate sizes are ignored until a
// valid one arrives.
func (c *CameraRig) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	c.Width, c.Height = width, height
	c.Aspect = float64(width) / float64(height)
	return true
}

func (c *CameraRig) Eye() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
}

var cameraUp = mgl32.Vec3{0, 1, 0}

// View looks from the eye at a fixed point ahead of the origin. When the eye
// passes the look plane the target would sit on it or straight above or
// below it; the view then faces -Z instead.
func (c *CameraRig) View() mgl32.Mat4 {
	eye := c.Eye()
	target := mgl32.Vec3{0, 0, CameraLookZ}
	if degenerateLook(target.Sub(eye)) {
		target = eye.Sub(mgl32.Vec3{0, 0, 1})
	}
	return mgl32.LookAtV(eye, target, cameraUp)
}

// degenerateLook reports a direction too short to normalize or parallel to
// the up vector.
func degenerateLook(dir mgl32.Vec3) bool {
	l := dir.Len()
	if l < 1e-4 {
		return true
	}
	return dir.Mul(1/l).Cross(cameraUp).Len() < 1e-4
}

func (c *CameraRig) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(CameraFov), float32(c.Aspect), CameraNear, CameraFar)
}
