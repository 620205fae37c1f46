package render

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/models"
)

// Triangle carries one face through the vertex stage. On input Positions
// are world-space points (w=1) and Normals are world-space; a vertex stage
// replaces them with clip-space positions and view-space normals.
type Triangle struct {
	Positions [3]math3d.Vec4
	TexCoords [3]math3d.Vec2
	Normals   [3]math3d.Vec3
}

// Fragment is the interpolated input to a fragment stage.
type Fragment struct {
	// Screen is the pixel position with interpolated depth in [0, DepthRange].
	Screen   math3d.Vec3
	TexCoord math3d.Vec2
	Normal   math3d.Vec3
	// Bary holds the weights of the three vertices at this pixel.
	Bary math3d.Vec3
}

// Pixel is a shaded fragment ready for the compositor.
type Pixel struct {
	Position math3d.Vec3
	Color    math3d.Color
}

// Shader is a vertex/fragment program. The set of shaders is closed:
// DepthShader, SimpleShader, GouraudShader and LambertShader.
//
// Bind must be called before drawing each model; it replaces every uniform
// the shader holds, so nothing from a previous draw leaks into the next.
type Shader interface {
	Bind(ds DrawState)
	Vertex(tri Triangle) Triangle
	// Fragment shades one pixel; false discards it.
	Fragment(f Fragment) (Pixel, bool)

	shader()
}

// DrawState is everything a shader may read during one model draw. It is
// assembled by NewDrawState and handed to Shader.Bind.
type DrawState struct {
	View     math3d.Mat4
	ViewProj math3d.Mat4
	Viewport math3d.Mat4
	// NormalMatrix is transpose(inverse(View)).
	NormalMatrix math3d.Mat4
	// ScreenToWorld is inverse(Viewport × ViewProj); zero when singular.
	ScreenToWorld math3d.Mat4

	Lights           []*Light
	Shadows          bool
	TangentNormalMap bool

	Diffuse          textureSampler
	NormalMap        textureSampler
	TangentNormalTex textureSampler
}

// textureSampler is the read side of texture.Image used by shaders.
type textureSampler interface {
	Pixel(u, v float64) math3d.Color
	Normal(u, v float64) math3d.Vec3
}

// NewDrawState builds the draw state for one model seen by cam through vp.
func NewDrawState(cam Camera, vp Viewport, lights []*Light, model *models.Model, opts Options) DrawState {
	view := cam.ViewMatrix()
	viewProj := cam.ProjectionMatrix().Mul(view)
	viewport := vp.Matrix()

	ds := DrawState{
		View:             view,
		ViewProj:         viewProj,
		Viewport:         viewport,
		NormalMatrix:     view.Inverse().Transpose(),
		ScreenToWorld:    viewport.Mul(viewProj).Inverse(),
		Lights:           lights,
		Shadows:          opts.Shadows,
		TangentNormalMap: opts.TangentNormalMap,
	}
	if model != nil {
		// Assign only non-nil images so a nil *texture.Image never becomes a
		// non-nil interface.
		if model.Diffuse != nil {
			ds.Diffuse = model.Diffuse
		}
		if model.NormalMap != nil {
			ds.NormalMap = model.NormalMap
		}
		if model.TangentNormalMap != nil {
			ds.TangentNormalTex = model.TangentNormalMap
		}
	}
	return ds
}

// lightUniform is a light resolved into view space for one draw.
type lightUniform struct {
	toLight math3d.Vec3 // unit vector towards the light, view space
	color   math3d.Color
	shadow  *ShadowMap
}

func (ds DrawState) viewLights() []lightUniform {
	out := make([]lightUniform, 0, len(ds.Lights))
	for _, l := range ds.Lights {
		if l == nil {
			continue
		}
		lu := lightUniform{
			toLight: ds.View.MulVec3Dir(l.Direction.Negate()).Normalize(),
			color:   l.Color,
		}
		if ds.Shadows && l.CastShadows {
			lu.shadow = l.shadow
		}
		out = append(out, lu)
	}
	return out
}

// transformTriangle applies the common vertex stage: positions to clip space
// and normals to view space.
func transformTriangle(tri Triangle, viewProj, normalMat math3d.Mat4) Triangle {
	for i := range 3 {
		tri.Positions[i] = viewProj.MulVec4(tri.Positions[i])
		tri.Normals[i] = normalMat.MulVec3Dir(tri.Normals[i]).Normalize()
	}
	return tri
}

// surfaceColor samples the diffuse map or falls back to flat.
func surfaceColor(diffuse textureSampler, flat math3d.Color, uv math3d.Vec2) math3d.Color {
	if diffuse != nil {
		return diffuse.Pixel(uv.X, uv.Y)
	}
	if flat == (math3d.Color{}) {
		return math3d.White
	}
	return flat
}
