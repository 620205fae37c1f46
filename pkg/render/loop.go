package render

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler asks the host to call fn once, typically before its next
// display refresh.
type Scheduler interface {
	RequestFrame(fn func())
}

// Sink receives finished frames, e.g. a window or terminal surface. The
// frame is only valid until Present returns.
type Sink interface {
	Present(f *Frame) error
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// RequestFrame implements Scheduler.
func (s SchedulerFunc) RequestFrame(fn func()) { s(fn) }

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *Frame) error

// Present implements Sink.
func (s SinkFunc) Present(f *Frame) error { return s(f) }

// TickerScheduler runs frame callbacks on a fixed interval.
type TickerScheduler struct {
	Interval time.Duration
}

// RequestFrame implements Scheduler.
func (t TickerScheduler) RequestFrame(fn func()) {
	time.AfterFunc(t.Interval, fn)
}

// LoopHandle controls a running render loop.
type LoopHandle struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}

	mu   sync.Mutex
	opts Options
	err  error
}

// Cancel stops the loop. No frame is started after Cancel returns; a frame
// already in progress finishes. Cancel may be called more than once.
func (h *LoopHandle) Cancel() {
	h.cancelled.Store(true)
	h.once.Do(func() { close(h.done) })
}

// Done is closed when the loop has been cancelled.
func (h *LoopHandle) Done() <-chan struct{} {
	return h.done
}

// SetOptions replaces the options used from the next frame on.
func (h *LoopHandle) SetOptions(opts Options) {
	h.mu.Lock()
	h.opts = opts
	h.mu.Unlock()
}

// Options returns the current options snapshot.
func (h *LoopHandle) Options() Options {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts
}

// Err returns the error that stopped the loop, if any.
func (h *LoopHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *LoopHandle) fail(err error) {
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()
	h.Cancel()
}

// RunLoop renders scene once per scheduled frame and presents it to sink
// until the returned handle is cancelled or a frame fails. With
// Options.Rotate set the camera orbits its target by RotateSpeed each frame.
// The scene belongs to the loop until it is cancelled.
func (r *Renderer) RunLoop(scene *Scene, opts Options, sched Scheduler, sink Sink) (*LoopHandle, error) {
	if sched == nil {
		return nil, ErrNoScheduler
	}
	if sink == nil {
		return nil, ErrNoSink
	}

	h := &LoopHandle{done: make(chan struct{}), opts: opts}

	var step func()
	step = func() {
		if h.cancelled.Load() {
			return
		}
		o := h.Options()
		if o.Rotate {
			OrbitY(&scene.Camera, o.RotateSpeed)
		}

		frame, err := r.Render(scene, o)
		if err != nil {
			r.log.Error("render failed", "err", err)
			h.fail(err)
			return
		}
		if err := sink.Present(frame); err != nil {
			r.log.Error("present failed", "err", err)
			h.fail(err)
			return
		}

		if !h.cancelled.Load() {
			sched.RequestFrame(step)
		}
	}
	sched.RequestFrame(step)
	return h, nil
}
