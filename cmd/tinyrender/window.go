package main

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/taigrr/tinyrender/pkg/render"
	"golang.org/x/image/font/basicfont"
)

var windowKeys = map[ebiten.Key]string{
	ebiten.KeyI: "i",
	ebiten.KeyC: "c",
	ebiten.KeyZ: "z",
	ebiten.KeyN: "n",
	ebiten.KeyS: "s",
	ebiten.KeyR: "r",
}

// window is an ebiten game that drives the render loop: it is the loop's
// scheduler (frames run in Update) and its sink (frames are shown in Draw).
type window struct {
	scene  *render.Scene
	handle *render.LoopHandle
	orbit  *render.Orbit
	drag   drag

	pending func()
	pix     []byte
	width   int
	height  int
	img     *ebiten.Image
}

// RequestFrame implements render.Scheduler.
func (w *window) RequestFrame(fn func()) {
	w.pending = fn
}

// Present implements render.Sink. The frame's buffer is reused by the next
// render, so its pixels are copied.
func (w *window) Present(f *render.Frame) error {
	if len(w.pix) != len(f.Color.Pix) {
		w.pix = make([]byte, len(f.Color.Pix))
	}
	copy(w.pix, f.Color.Pix)
	w.width, w.height = f.Color.Width, f.Color.Height
	return nil
}

func (w *window) Update() error {
	if err := w.handle.Err(); err != nil {
		return err
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	for key, name := range windowKeys {
		if inpututil.IsKeyJustPressed(key) {
			toggle(w.handle, name)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.orbit.Nudge(spinImpulse)
	}

	x, _ := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		w.drag.press(x)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		w.orbit.Nudge(w.drag.move(x))
	default:
		w.drag.release()
	}

	w.orbit.Apply(&w.scene.Camera)
	if fn := w.pending; fn != nil {
		w.pending = nil
		fn()
	}
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	if w.pix == nil {
		return
	}
	if w.img == nil || w.img.Bounds().Dx() != w.width || w.img.Bounds().Dy() != w.height {
		if w.img != nil {
			w.img.Deallocate()
		}
		w.img = ebiten.NewImage(w.width, w.height)
	}
	w.img.WritePixels(w.pix)
	screen.DrawImage(w.img, nil)

	text.Draw(screen, statusLine(w.handle.Options()), basicfont.Face7x13, 4, 14, color.RGBA{190, 190, 190, 255})
}

func (w *window) Layout(_, _ int) (int, int) {
	o := w.handle.Options()
	return o.Width, o.Height
}

func statusLine(o render.Options) string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("%s %s  z:%s  shadows:%s  tangent:%s  rotate:%s",
		o.Interpolation, o.Camera,
		onOff(o.DepthBuffer), onOff(o.Shadows), onOff(o.TangentNormalMap), onOff(o.Rotate))
}

// runWindow renders continuously into a desktop window until it is closed.
func runWindow(sc *render.Scene, opts render.Options, fps int) error {
	w := &window{scene: sc, orbit: render.NewOrbit(fps)}

	r := render.NewRenderer(slog.Default())
	h, err := r.RunLoop(sc, opts, w, w)
	if err != nil {
		return err
	}
	defer h.Cancel()
	w.handle = h

	ebiten.SetWindowTitle("tinyrender")
	ebiten.SetWindowSize(opts.Width*2, opts.Height*2)
	ebiten.SetWindowResizable(true)
	ebiten.SetTPS(fps)
	return ebiten.RunGame(w)
}
