// Package renderer draws the textured globe and its marker pins with OpenGL.
package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/engine/shader"
	"github.com/Faultbox/forekaster/internal/logger"
	"github.com/Faultbox/forekaster/internal/overlay"
	"github.com/Faultbox/forekaster/pkg/math"
)

// Pins supplies the overlay pins to draw after the globe.
type Pins interface {
	DrawOrder() []*overlay.Pin
}

// Config holds renderer configuration.
type Config struct {
	Radius         float64
	WidthSegments  int
	HeightSegments int

	// Texture is the equirectangular surface image.
	Texture *image.RGBA

	Background [3]float32
	PinColor   [3]float32
}

// DefaultConfig returns renderer defaults for a globe of radius.
func DefaultConfig(radius float64) Config {
	return Config{
		Radius:         radius,
		WidthSegments:  64,
		HeightSegments: 64,
		Background:     [3]float32{0.02, 0.03, 0.06},
		PinColor:       [3]float32{1.0, 0.55, 0.1},
	}
}

const sphereVertex = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aUV;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec2 vUV;
out vec3 vNormal;

void main() {
	vUV = aUV;
	vNormal = mat3(uModel) * normalize(aPos);
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const sphereFragment = `
#version 410 core

in vec2 vUV;
in vec3 vNormal;

uniform sampler2D uTexture;

out vec4 FragColor;

void main() {
	// Light from the camera side so the facing hemisphere stays bright.
	float light = 0.35 + 0.65 * max(dot(normalize(vNormal), vec3(0.0, 0.0, 1.0)), 0.0);
	FragColor = vec4(texture(uTexture, vUV).rgb * light, 1.0);
}
`

const pinVertex = `
#version 410 core

layout (location = 0) in vec2 aPos;
layout (location = 1) in float aSize;

uniform mat4 uProjection;

void main() {
	gl_PointSize = aSize;
	gl_Position = uProjection * vec4(aPos, 0.0, 1.0);
}
`

const pinFragment = `
#version 410 core

uniform vec3 uColor;

out vec4 FragColor;

void main() {
	vec2 c = gl_PointCoord * 2.0 - 1.0;
	float d = dot(c, c);
	if (d > 1.0) {
		discard;
	}
	FragColor = vec4(uColor * (d > 0.5 ? 0.6 : 1.0), 1.0);
}
`

// Renderer handles all OpenGL rendering. It implements scene.Renderer.
type Renderer struct {
	config Config
	pins   Pins

	sphere     *shader.Program
	sphereVAO  uint32
	sphereVBO  uint32
	sphereEBO  uint32
	indexCount int32
	texture    uint32

	pin     *shader.Program
	pinVAO  uint32
	pinVBO  uint32
	pinData []float32

	width, height int
}

var _ scene.Renderer = (*Renderer)(nil)

// New creates a new renderer. pins may be nil.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, pins Pins) (*Renderer, error) {
	r := &Renderer{config: cfg, pins: pins}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	bg := cfg.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1.0)

	var err error
	if r.sphere, err = shader.Compile(sphereVertex, sphereFragment); err != nil {
		return nil, fmt.Errorf("sphere shader: %w", err)
	}
	if r.pin, err = shader.Compile(pinVertex, pinFragment); err != nil {
		r.Close()
		return nil, fmt.Errorf("pin shader: %w", err)
	}

	r.uploadSphere(Sphere(cfg.Radius, cfg.WidthSegments, cfg.HeightSegments))
	if cfg.Texture != nil {
		r.uploadTexture(cfg.Texture)
	}
	r.createPinBuffers()

	if err := checkGL("creating resources"); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) uploadSphere(m Mesh) {
	gl.GenVertexArrays(1, &r.sphereVAO)
	gl.BindVertexArray(r.sphereVAO)

	gl.GenBuffers(1, &r.sphereVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.sphereVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*4, gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &r.sphereEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.sphereEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	stride := int32(VertexStride * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	r.indexCount = int32(len(m.Indices))

	logger.Debug("sphere uploaded",
		zap.Int("vertices", m.VertexCount()),
		zap.Int32("indices", r.indexCount),
	)
}

func (r *Renderer) uploadTexture(img *image.RGBA) {
	b := img.Bounds()
	gl.GenTextures(1, &r.texture)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (r *Renderer) createPinBuffers() {
	gl.GenVertexArrays(1, &r.pinVAO)
	gl.BindVertexArray(r.pinVAO)
	gl.GenBuffers(1, &r.pinVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.pinVBO)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, 3*4, unsafe.Pointer(uintptr(2*4)))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
}

// Render draws one frame.
func (r *Renderer) Render(f scene.Frame) error {
	if f.Width != r.width || f.Height != r.height {
		r.width, r.height = f.Width, f.Height
		gl.Viewport(0, 0, int32(f.Width), int32(f.Height))
		logger.Debug("renderer resized",
			zap.Int("width", f.Width),
			zap.Int("height", f.Height),
		)
	}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.sphere.Use()
	r.sphere.SetMat4("uMVP", f.Projection.Mul(f.View).Mul(f.Model).Float32())
	r.sphere.SetMat4("uModel", f.Model.Float32())
	r.sphere.SetInt("uTexture", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.BindVertexArray(r.sphereVAO)
	gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, nil)

	r.drawPins(f.Width, f.Height)
	gl.BindVertexArray(0)

	return checkGL("rendering")
}

// drawPins draws visible pins in draw order as screen-space points.
func (r *Renderer) drawPins(width, height int) {
	if r.pins == nil {
		return
	}
	r.pinData = PinVertices(r.pinData[:0], r.pins.DrawOrder())
	if len(r.pinData) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	defer gl.Enable(gl.DEPTH_TEST)

	r.pin.Use()
	r.pin.SetMat4("uProjection", math.Ortho(0, float64(width), float64(height), 0, -1, 1).Float32())
	c := r.config.PinColor
	gl.Uniform3f(r.pin.Uniform("uColor"), c[0], c[1], c[2])

	gl.BindVertexArray(r.pinVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.pinVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.pinData)*4, gl.Ptr(r.pinData), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(len(r.pinData)/3))
}

// PinVertices appends (x, y, size) for every visible pin to dst.
func PinVertices(dst []float32, pins []*overlay.Pin) []float32 {
	for _, p := range pins {
		s := p.Style()
		if !s.Visible {
			continue
		}
		dst = append(dst, float32(s.X), float32(s.Y), float32(2*p.Radius))
	}
	return dst
}

// Close releases GPU resources. It is safe to call more than once.
func (r *Renderer) Close() error {
	logger.Info("closing renderer")

	var errs error
	if r.sphereVAO != 0 {
		gl.DeleteVertexArrays(1, &r.sphereVAO)
		gl.DeleteBuffers(1, &r.sphereVBO)
		gl.DeleteBuffers(1, &r.sphereEBO)
		r.sphereVAO, r.sphereVBO, r.sphereEBO = 0, 0, 0
		errs = multierr.Append(errs, checkGL("deleting sphere"))
	}
	if r.texture != 0 {
		gl.DeleteTextures(1, &r.texture)
		r.texture = 0
		errs = multierr.Append(errs, checkGL("deleting texture"))
	}
	if r.pinVAO != 0 {
		gl.DeleteVertexArrays(1, &r.pinVAO)
		gl.DeleteBuffers(1, &r.pinVBO)
		r.pinVAO, r.pinVBO = 0, 0
		errs = multierr.Append(errs, checkGL("deleting pins"))
	}
	for _, p := range []*shader.Program{r.sphere, r.pin} {
		if p != nil {
			p.Delete()
		}
	}
	return multierr.Append(errs, checkGL("deleting programs"))
}

func checkGL(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}
