package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"pulseanime/internal/scene"
)

// Billboard glow color (0x3b82f6).
var emissiveColor = [3]float32{0x3b / 255.0, 0x82 / 255.0, 0xf6 / 255.0}

// Render draws one frame: opaque billboards first, then the translucent
// landscape and particles without depth writes.
func (d *Device) Render(f *scene.Frame) {
	if d.destroyed {
		return
	}
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		w, h = d.width, d.height
	}
	if w <= 0 || h <= 0 {
		return
	}

	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(scene.FogR, scene.FogG, scene.FogB, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(true)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	view, proj := f.View, f.Projection

	// Billboards, double sided.
	if len(f.Billboards) > 0 {
		gl.UseProgram(d.billProg)
		gl.UniformMatrix4fv(d.billUView, 1, false, &view[0])
		gl.UniformMatrix4fv(d.billUProj, 1, false, &proj[0])
		gl.Uniform3f(d.billUFog, scene.FogR, scene.FogG, scene.FogB)
		gl.Uniform1f(d.billUDensity, scene.FogDensity)
		gl.Uniform3f(d.billUEmitCol, emissiveColor[0], emissiveColor[1], emissiveColor[2])
		gl.Uniform1i(d.billUTex, 0)
		gl.ActiveTexture(gl.TEXTURE0)
		for i := range f.Billboards {
			b := &f.Billboards[i]
			m, ok := d.meshes[b.Mesh.ID]
			if !ok || !d.textures[b.Texture.ID] {
				continue
			}
			gl.BindTexture(gl.TEXTURE_2D, b.Texture.ID)
			gl.UniformMatrix4fv(d.billUModel, 1, false, &b.Model[0])
			gl.Uniform1f(d.billUEmissive, b.Emissive)
			gl.BindVertexArray(m.vao)
			gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
		}
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}

	gl.DepthMask(false)

	// Landscape, fades in with reveal.
	if m, ok := d.meshes[f.Landscape.Mesh.ID]; ok && f.Landscape.Reveal > 0 {
		model := f.Landscape.Model
		gl.UseProgram(d.landProg)
		gl.UniformMatrix4fv(d.landUModel, 1, false, &model[0])
		gl.UniformMatrix4fv(d.landUView, 1, false, &view[0])
		gl.UniformMatrix4fv(d.landUProj, 1, false, &proj[0])
		gl.Uniform1f(d.landUTime, f.Landscape.Time)
		gl.Uniform1f(d.landUAmp, f.Landscape.Amplitude)
		gl.Uniform1f(d.landUReveal, f.Landscape.Reveal)
		gl.Uniform3f(d.landULow, float32(scene.LandscapeLow[0]), float32(scene.LandscapeLow[1]), float32(scene.LandscapeLow[2]))
		gl.Uniform3f(d.landUHigh, float32(scene.LandscapeHigh[0]), float32(scene.LandscapeHigh[1]), float32(scene.LandscapeHigh[2]))
		gl.Uniform3f(d.landUFog, scene.FogR, scene.FogG, scene.FogB)
		gl.Uniform1f(d.landUDensity, scene.FogDensity)
		gl.BindVertexArray(m.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	}

	// Tunnel particles.
	if pb, ok := d.points[f.Points.ID]; ok && f.PointCount > 0 {
		n := min(f.PointCount, pb.count)
		gl.UseProgram(d.pointProg)
		gl.UniformMatrix4fv(d.pointUView, 1, false, &view[0])
		gl.UniformMatrix4fv(d.pointUProj, 1, false, &proj[0])
		gl.Uniform1f(d.pointUSize, scene.TunnelPointSize)
		gl.Uniform1f(d.pointUScale, float32(h)/2)
		gl.Uniform1f(d.pointUOpacity, scene.TunnelOpacity)
		gl.Uniform3f(d.pointUFog, scene.FogR, scene.FogG, scene.FogB)
		gl.Uniform1f(d.pointUDensity, scene.FogDensity)
		gl.BindVertexArray(pb.vao)
		gl.DrawArrays(gl.POINTS, 0, int32(n))
	}

	gl.DepthMask(true)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}
