package render

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"pulseanime/internal/scene"
)

// Mesh vertices are position (3) + uv (2).
const meshStride = 5 * 4

type pointBuffer struct {
	vao, posVBO, colVBO uint32
	count               int
}

type mesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// Device is the OpenGL 4.1 implementation of scene.Device. Every method
// must run on the thread that owns the GL context.
type Device struct {
	pointProg     uint32
	pointUView    int32
	pointUProj    int32
	pointUSize    int32
	pointUScale   int32
	pointUOpacity int32
	pointUFog     int32
	pointUDensity int32

	billProg      uint32
	billUModel    int32
	billUView     int32
	billUProj     int32
	billUTex      int32
	billUEmissive int32
	billUEmitCol  int32
	billUFog      int32
	billUDensity  int32

	landProg     uint32
	landUModel   int32
	landUView    int32
	landUProj    int32
	landUTime    int32
	landUAmp     int32
	landUReveal  int32
	landULow     int32
	landUHigh    int32
	landUFog     int32
	landUDensity int32

	points   map[uint32]*pointBuffer
	meshes   map[uint32]*mesh
	textures map[uint32]bool

	width, height int
	destroyed     bool
}

// NewDevice compiles the scene programs. gl.Init must have run on the
// calling thread.
func NewDevice() (*Device, error) {
	pointProg, err := linkProgram(pointVertSrc, pointFragSrc)
	if err != nil {
		return nil, fmt.Errorf("point program: %w", err)
	}
	billProg, err := linkProgram(billboardVertSrc, billboardFragSrc)
	if err != nil {
		gl.DeleteProgram(pointProg)
		return nil, fmt.Errorf("billboard program: %w", err)
	}
	landProg, err := linkProgram(landscapeVertSrc, landscapeFragSrc)
	if err != nil {
		gl.DeleteProgram(pointProg)
		gl.DeleteProgram(billProg)
		return nil, fmt.Errorf("landscape program: %w", err)
	}

	d := &Device{
		pointProg: pointProg,
		billProg:  billProg,
		landProg:  landProg,
		points:    make(map[uint32]*pointBuffer),
		meshes:    make(map[uint32]*mesh),
		textures:  make(map[uint32]bool),
	}

	d.pointUView = uniform(pointProg, "uView")
	d.pointUProj = uniform(pointProg, "uProj")
	d.pointUSize = uniform(pointProg, "uSize")
	d.pointUScale = uniform(pointProg, "uScale")
	d.pointUOpacity = uniform(pointProg, "uOpacity")
	d.pointUFog = uniform(pointProg, "uFogColor")
	d.pointUDensity = uniform(pointProg, "uFogDensity")

	d.billUModel = uniform(billProg, "uModel")
	d.billUView = uniform(billProg, "uView")
	d.billUProj = uniform(billProg, "uProj")
	d.billUTex = uniform(billProg, "uTex")
	d.billUEmissive = uniform(billProg, "uEmissive")
	d.billUEmitCol = uniform(billProg, "uEmissiveColor")
	d.billUFog = uniform(billProg, "uFogColor")
	d.billUDensity = uniform(billProg, "uFogDensity")

	d.landUModel = uniform(landProg, "uModel")
	d.landUView = uniform(landProg, "uView")
	d.landUProj = uniform(landProg, "uProj")
	d.landUTime = uniform(landProg, "uTime")
	d.landUAmp = uniform(landProg, "uAmp")
	d.landUReveal = uniform(landProg, "uReveal")
	d.landULow = uniform(landProg, "uLow")
	d.landUHigh = uniform(landProg, "uHigh")
	d.landUFog = uniform(landProg, "uFogColor")
	d.landUDensity = uniform(landProg, "uFogDensity")

	return d, nil
}

func (d *Device) CreatePoints(positions, colors []float32) (scene.Handle, error) {
	if d.destroyed {
		return scene.Handle{}, fmt.Errorf("create points: device destroyed")
	}
	if len(positions) == 0 || len(positions) != len(colors) {
		return scene.Handle{}, fmt.Errorf("create points: %d positions, %d colors", len(positions), len(colors))
	}

	pb := &pointBuffer{count: len(positions) / 3}
	gl.GenVertexArrays(1, &pb.vao)
	gl.BindVertexArray(pb.vao)

	gl.GenBuffers(1, &pb.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, pb.posVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, gl.Ptr(positions), gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)

	gl.GenBuffers(1, &pb.colVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, pb.colVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(colors)*4, gl.Ptr(colors), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 3*4, 0)

	gl.BindVertexArray(0)
	d.points[pb.vao] = pb
	return scene.Handle{Kind: scene.KindBuffer, ID: pb.vao}, nil
}

// UpdatePoints rewrites the position buffer in place. Colors are static.
func (d *Device) UpdatePoints(h scene.Handle, positions []float32) {
	pb, ok := d.points[h.ID]
	if !ok || h.Kind != scene.KindBuffer {
		return
	}
	n := min(len(positions), pb.count*3)
	if n == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, pb.posVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, n*4, gl.Ptr(positions))
}

func (d *Device) CreateTexture(img *image.RGBA) (scene.Handle, error) {
	if d.destroyed {
		return scene.Handle{}, fmt.Errorf("create texture: device destroyed")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return scene.Handle{}, fmt.Errorf("create texture: empty image")
	}
	pix := img.Pix
	if img.Stride != b.Dx()*4 {
		pix = make([]uint8, 0, b.Dx()*b.Dy()*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			pix = append(pix, img.Pix[off:off+b.Dx()*4]...)
		}
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	d.textures[tex] = true
	return scene.Handle{Kind: scene.KindTexture, ID: tex}, nil
}

// CreateQuad builds a w×h plane centered on the origin, facing +Z. Row 0 of
// an uploaded image maps to the top edge.
func (d *Device) CreateQuad(w, h float32) (scene.Handle, error) {
	hw, hh := w/2, h/2
	verts := []float32{
		-hw, -hh, 0, 0, 1,
		hw, -hh, 0, 1, 1,
		hw, hh, 0, 1, 0,
		-hw, hh, 0, 0, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return d.createMesh(verts, indices)
}

// CreateGrid builds a size×size plane in XY split into segments² cells.
func (d *Device) CreateGrid(size float32, segments int) (scene.Handle, error) {
	if segments < 1 {
		segments = 1
	}
	row := segments + 1
	verts := make([]float32, 0, row*row*5)
	step := size / float32(segments)
	half := size / 2
	for iy := 0; iy < row; iy++ {
		for ix := 0; ix < row; ix++ {
			u := float32(ix) / float32(segments)
			v := float32(iy) / float32(segments)
			verts = append(verts, -half+float32(ix)*step, half-float32(iy)*step, 0, u, v)
		}
	}
	indices := make([]uint32, 0, segments*segments*6)
	for iy := 0; iy < segments; iy++ {
		for ix := 0; ix < segments; ix++ {
			a := uint32(iy*row + ix)
			b := a + 1
			c := a + uint32(row)
			e := c + 1
			indices = append(indices, a, c, b, b, c, e)
		}
	}
	return d.createMesh(verts, indices)
}

func (d *Device) createMesh(verts []float32, indices []uint32) (scene.Handle, error) {
	if d.destroyed {
		return scene.Handle{}, fmt.Errorf("create mesh: device destroyed")
	}
	m := &mesh{indexCount: int32(len(indices))}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, meshStride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, meshStride, uintptr(3*4))

	gl.BindVertexArray(0)
	d.meshes[m.vao] = m
	return scene.Handle{Kind: scene.KindMesh, ID: m.vao}, nil
}

// Release frees one GPU object. Unknown handles are ignored.
func (d *Device) Release(h scene.Handle) {
	switch h.Kind {
	case scene.KindBuffer:
		if pb, ok := d.points[h.ID]; ok {
			gl.DeleteBuffers(1, &pb.posVBO)
			gl.DeleteBuffers(1, &pb.colVBO)
			gl.DeleteVertexArrays(1, &pb.vao)
			delete(d.points, h.ID)
		}
	case scene.KindTexture:
		if d.textures[h.ID] {
			tex := h.ID
			gl.DeleteTextures(1, &tex)
			delete(d.textures, h.ID)
		}
	case scene.KindMesh:
		if m, ok := d.meshes[h.ID]; ok {
			gl.DeleteBuffers(1, &m.vbo)
			gl.DeleteBuffers(1, &m.ebo)
			gl.DeleteVertexArrays(1, &m.vao)
			delete(d.meshes, h.ID)
		}
	}
}

func (d *Device) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.width, d.height = width, height
}

// Live is the number of GPU objects still allocated through this device.
func (d *Device) Live() int {
	return len(d.points) + len(d.meshes) + len(d.textures)
}

// Destroy releases anything still allocated and the shader programs.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	for id := range d.points {
		d.Release(scene.Handle{Kind: scene.KindBuffer, ID: id})
	}
	for id := range d.meshes {
		d.Release(scene.Handle{Kind: scene.KindMesh, ID: id})
	}
	for id := range d.textures {
		d.Release(scene.Handle{Kind: scene.KindTexture, ID: id})
	}
	gl.DeleteProgram(d.pointProg)
	gl.DeleteProgram(d.billProg)
	gl.DeleteProgram(d.landProg)
	d.destroyed = true
}
