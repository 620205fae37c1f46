package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/tinyrender/pkg/render"
)

// runTerminal renders continuously into the terminal using half-block cells
// until Esc, q or an interrupt.
func runTerminal(sc *render.Scene, opts render.Options, fps int) error {
	t := uv.DefaultTerminal()

	cols, rows, err := t.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := t.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	t.EnterAltScreen()
	t.HideCursor()
	t.Resize(cols, rows)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR mouse mode
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		t.ExitAltScreen()
		t.ShowCursor()
		t.Shutdown(context.Background())
	}()

	vp := render.TerminalViewport(cols, rows)
	opts.Width, opts.Height = vp.Width, vp.Height
	area := uv.Rect(0, 0, cols, rows)

	// Frames run on this goroutine, between input events.
	var pending func()
	sched := render.SchedulerFunc(func(fn func()) { pending = fn })
	sink := render.SinkFunc(func(f *render.Frame) error {
		f.Color.Draw(t, area)
		return t.Display()
	})

	r := render.NewRenderer(slog.Default())
	h, err := r.RunLoop(sc, opts, sched, sink)
	if err != nil {
		return err
	}
	defer h.Cancel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orbit := render.NewOrbit(fps)
	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	var d drag
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.Done():
			return h.Err()

		case ev := <-t.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				cols, rows = ev.Width, ev.Height
				t.Erase()
				t.Resize(cols, rows)
				area = uv.Rect(0, 0, cols, rows)
				resize(h, render.TerminalViewport(cols, rows))

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					return nil
				case ev.MatchString("space"):
					orbit.Nudge(spinImpulse)
				default:
					for _, k := range toggleKeys {
						if ev.MatchString(k) {
							toggle(h, k)
						}
					}
				}

			case uv.MouseClickEvent:
				d.press(ev.X)
			case uv.MouseMotionEvent:
				orbit.Nudge(d.move(ev.X))
			case uv.MouseReleaseEvent:
				d.release()
			}

		case <-ticker.C:
			orbit.Apply(&sc.Camera)
			if fn := pending; fn != nil {
				pending = nil
				fn()
			}
		}
	}
}
