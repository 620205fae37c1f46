// Package render rasterizes triangle meshes on the CPU: cameras and
// lights, the shader programs, both fill strategies, shadow maps and the
// frame loop that hands finished frames to a display sink.
package render

import (
	"errors"
	"image/color"
	"log/slog"
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/models"
)

var (
	// ErrNoSink is returned by RunLoop when no display sink is given.
	ErrNoSink = errors.New("render: no display sink")
	// ErrNoScheduler is returned by RunLoop when no frame scheduler is given.
	ErrNoScheduler = errors.New("render: no frame scheduler")
	// ErrEmptyViewport is returned when the requested size covers no pixels.
	ErrEmptyViewport = errors.New("render: empty viewport")
)

// Item is one model drawn with one shader.
type Item struct {
	Model  *models.Model
	Shader Shader
}

// Scene is everything drawn in a frame.
type Scene struct {
	Camera Camera
	Lights []*Light
	Items  []Item
}

// Frame holds the buffers produced by a render. Depth is nil when depth
// buffering is off.
type Frame struct {
	Color *Framebuffer
	Depth *DepthBuffer
}

// Stats counts the work done by the most recent Render.
type Stats struct {
	ModelsDrawn   int
	ModelsCulled  int
	ModelsSkipped int
	Triangles     int
	Fragments     int
	ShadowMaps    int
}

// Renderer owns the frame buffers and draws scenes into them. A Renderer
// is not safe for concurrent use.
type Renderer struct {
	log   *slog.Logger
	frame *Frame
	stats Stats
	depth DepthShader
}

// NewRenderer creates a renderer logging to log; nil means slog.Default().
func NewRenderer(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{log: log}
}

// Stats returns the counters of the last Render call.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Render draws scene with opts and returns the frame. The frame's buffers
// are reused by the next call on the same renderer.
func (r *Renderer) Render(scene *Scene, opts Options) (*Frame, error) {
	vp := Viewport{Width: opts.Width, Height: opts.Height}
	if vp.Empty() {
		return nil, ErrEmptyViewport
	}
	r.stats = Stats{}

	frame := r.prepareFrame(vp, opts)

	cam := scene.Camera.As(opts.Camera).fit(vp, sceneReach(scene.Camera.Position, scene.Items))

	if opts.Shadows {
		r.shadowPass(scene, vp)
	}

	frustum := cam.Frustum()
	t := newTarget(frame.Color, frame.Depth, vp)
	for i, item := range scene.Items {
		if item.Model == nil || len(item.Model.Faces) == 0 || item.Shader == nil {
			r.log.Warn("skipping draw", "item", i, "reason", skipReason(item))
			r.stats.ModelsSkipped++
			continue
		}
		if lo, hi := item.Model.Bounds(); lo != hi && !frustum.IntersectAABB(NewAABB(lo, hi)) {
			r.stats.ModelsCulled++
			continue
		}

		ds := NewDrawState(cam, vp, scene.Lights, item.Model, opts)
		tris, frags := drawModel(item.Model, item.Shader, ds, t, opts.Interpolation)
		r.stats.ModelsDrawn++
		r.stats.Triangles += tris
		r.stats.Fragments += frags
	}

	r.log.Debug("frame rendered",
		"drawn", r.stats.ModelsDrawn,
		"culled", r.stats.ModelsCulled,
		"skipped", r.stats.ModelsSkipped,
		"triangles", r.stats.Triangles,
		"fragments", r.stats.Fragments,
		"shadow_maps", r.stats.ShadowMaps,
	)
	return frame, nil
}

// prepareFrame reallocates the buffers when the size changed and clears
// them otherwise.
func (r *Renderer) prepareFrame(vp Viewport, opts Options) *Frame {
	if r.frame == nil || r.frame.Color.Width != vp.Width || r.frame.Color.Height != vp.Height {
		r.frame = &Frame{Color: NewFramebuffer(vp.Width, vp.Height)}
	}
	r.frame.Color.Clear(color.RGBA(opts.Background))

	switch {
	case !opts.DepthBuffer:
		r.frame.Depth = nil
	case r.frame.Depth == nil || r.frame.Depth.Width != vp.Width || r.frame.Depth.Height != vp.Height:
		r.frame.Depth = NewDepthBuffer(vp.Width, vp.Height)
	default:
		r.frame.Depth.Clear()
	}
	return r.frame
}

// shadowPass renders every shadow-casting light's depth map from its own
// camera. Culling is not applied: occluders outside the view still cast.
func (r *Renderer) shadowPass(scene *Scene, vp Viewport) {
	for _, l := range scene.Lights {
		if l == nil || !l.CastShadows {
			continue
		}
		sm, allocated := l.prepareShadowMap(vp)
		if allocated {
			r.log.Debug("shadow map allocated", "width", vp.Width, "height", vp.Height)
		}

		ds := NewDrawState(l.Camera(), vp, nil, nil, Options{})
		t := newTarget(nil, sm.Depth, vp)
		for _, item := range scene.Items {
			if item.Model == nil {
				continue
			}
			drawModel(item.Model, &r.depth, ds, t, InterpolationBarycentric)
		}
		r.stats.ShadowMaps++
	}
}

// drawModel binds sh and pushes every face of m through it. It returns the
// number of triangles submitted and pixels written.
func drawModel(m *models.Model, sh Shader, ds DrawState, t target, mode Interpolation) (int, int) {
	sh.Bind(ds)

	frags := 0
	for f := range m.Faces {
		tri := modelTriangle(m, f)
		frags += drawTriangle(sh.Vertex(tri), sh, t, mode)
	}
	return len(m.Faces), frags
}

// modelTriangle gathers face f in world space. Corners without a normal get
// the face normal.
func modelTriangle(m *models.Model, f int) Triangle {
	verts := m.Triangle(f)

	var tri Triangle
	var faceNormal math3d.Vec3
	for i, v := range verts {
		tri.Positions[i] = math3d.Point(v.Position)
		tri.TexCoords[i] = v.TexCoord
		tri.Normals[i] = v.Normal
		if m.Faces[f][i].Norm < 0 {
			if faceNormal == (math3d.Vec3{}) {
				faceNormal = math3d.TriangleNormal(verts[0].Position, verts[1].Position, verts[2].Position)
			}
			tri.Normals[i] = faceNormal
		}
	}
	return tri
}

// sceneReach is the distance from p to the farthest bounding box corner of
// any drawable model.
func sceneReach(p math3d.Vec3, items []Item) float64 {
	reach := 0.0
	for _, item := range items {
		if item.Model == nil || len(item.Model.Faces) == 0 {
			continue
		}
		lo, hi := item.Model.Bounds()
		far := math3d.V3(
			max(math.Abs(p.X-lo.X), math.Abs(p.X-hi.X)),
			max(math.Abs(p.Y-lo.Y), math.Abs(p.Y-hi.Y)),
			max(math.Abs(p.Z-lo.Z), math.Abs(p.Z-hi.Z)),
		)
		reach = max(reach, far.Len())
	}
	return reach
}

func skipReason(item Item) string {
	switch {
	case item.Model == nil:
		return "no model"
	case item.Shader == nil:
		return "no shader"
	default:
		return "no faces"
	}
}
