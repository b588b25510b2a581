package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Point vertex shader: tunnel particles with perspective size attenuation.
const pointVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aColor;

uniform mat4 uView;
uniform mat4 uProj;
uniform float uSize;
uniform float uScale; // half the framebuffer height

out vec3 vColor;
out float vFogDepth;

void main() {
    vec4 mv = uView * vec4(aPos, 1.0);
    gl_Position = uProj * mv;
    gl_PointSize = max(1.0, uSize * (uScale / max(-mv.z, 0.001)));
    vColor = aColor;
    vFogDepth = -mv.z;
}
` + "\x00"

const pointFragSrc = `#version 410 core

uniform float uOpacity;
uniform vec3 uFogColor;
uniform float uFogDensity;

in vec3 vColor;
in float vFogDepth;
out vec4 FragColor;

void main() {
    float fog = 1.0 - exp(-uFogDensity * uFogDensity * vFogDepth * vFogDepth);
    FragColor = vec4(mix(vColor, uFogColor, clamp(fog, 0.0, 1.0)), uOpacity);
}
` + "\x00"

// Mesh vertex shader shared by billboards.
const billboardVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProj;

out vec2 vUV;
out float vFogDepth;

void main() {
    vec4 mv = uView * uModel * vec4(aPos, 1.0);
    gl_Position = uProj * mv;
    vUV = aUV;
    vFogDepth = -mv.z;
}
` + "\x00"

// Billboard fragment shader: media texture plus a blue emissive glow.
const billboardFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform float uEmissive;
uniform vec3 uEmissiveColor;
uniform vec3 uFogColor;
uniform float uFogDensity;

in vec2 vUV;
in float vFogDepth;
out vec4 FragColor;

void main() {
    vec4 t = texture(uTex, vUV);
    vec3 col = t.rgb * 0.85 + uEmissiveColor * uEmissive;
    float fog = 1.0 - exp(-uFogDensity * uFogDensity * vFogDepth * vFogDepth);
    FragColor = vec4(mix(col, uFogColor, clamp(fog, 0.0, 1.0)), t.a);
}
` + "\x00"

// Landscape vertex shader: displaces the flat grid along its normal.
const landscapeVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProj;
uniform float uTime;
uniform float uAmp;

out float vDisp;
out float vFogDepth;

void main() {
    float d = sin(aPos.x * 2.0 + uTime * 0.8) * cos(aPos.y * 2.0 + uTime * 0.6) * (0.6 + uAmp * 2.0);
    vec3 p = vec3(aPos.xy, d);
    vec4 mv = uView * uModel * vec4(p, 1.0);
    gl_Position = uProj * mv;
    vDisp = d;
    vFogDepth = -mv.z;
}
` + "\x00"

const landscapeFragSrc = `#version 410 core

uniform float uReveal;
uniform vec3 uLow;
uniform vec3 uHigh;
uniform vec3 uFogColor;
uniform float uFogDensity;

in float vDisp;
in float vFogDepth;
out vec4 FragColor;

void main() {
    vec3 col = mix(uLow, uHigh, 0.5 + 0.5 * vDisp);
    float a = smoothstep(0.0, 1.0, uReveal) * (0.4 + 0.6 * abs(vDisp));
    if (a < 0.002) discard;
    float fog = 1.0 - exp(-uFogDensity * uFogDensity * vFogDepth * vFogDepth);
    FragColor = vec4(mix(col, uFogColor, clamp(fog, 0.0, 1.0)), a);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}

// uniform looks up a uniform location by name.
func uniform(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}
