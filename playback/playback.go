// Package playback drives a frame-index clock over a timeline and pushes
// the frame for each tick into a sink (in FlipEdit, the texture registry).
//
// The controller does not decode or own frames: a FrameFunc resolves an
// index to frame bytes (compositor output, cache, test fixture), and a
// SinkFunc delivers them. Play, Pause and Seek follow the editor timeline
// model: Seek clamps into [0, TotalFrames-1] and the clock wraps to frame
// zero at the end of the timeline when looping is enabled.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FrameFunc resolves a timeline frame index to RGBA bytes.
// ok is false when no frame exists for that index (gap in the timeline);
// the controller skips the tick without stopping playback.
type FrameFunc func(index int) (data []byte, ok bool)

// SinkFunc receives the bytes for one delivered frame.
type SinkFunc func(index int, data []byte)

// Config holds timeline parameters for a Controller.
type Config struct {
	// FPS is the playback rate (0.1 - 240).
	FPS float64
	// TotalFrames is the timeline length in frames (> 0).
	TotalFrames int
	// Loop wraps playback to frame zero at the end of the timeline.
	// When false the controller pauses on the last frame instead.
	Loop bool
}

// State is a snapshot of the controller's position and counters.
type State struct {
	Playing      bool
	CurrentFrame int
	FPS          float64
	TotalFrames  int
	// Delivered counts frames handed to the sink.
	Delivered uint64
	// Missing counts ticks where FrameFunc had no frame.
	Missing uint64
}

// Controller is the playback clock. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	fps      float64
	total    int
	loop     bool
	playing  bool
	current  int
	getFrame FrameFunc
	sink     SinkFunc

	delivered uint64 // atomic
	missing   uint64 // atomic

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startedMu sync.Mutex
	started   bool
}

// New creates a controller with fail-fast validation.
func New(cfg Config, getFrame FrameFunc, sink SinkFunc) (*Controller, error) {
	if cfg.FPS < 0.1 || cfg.FPS > 240 {
		return nil, fmt.Errorf("playback: invalid FPS %.2f (must be 0.1-240)", cfg.FPS)
	}
	if cfg.TotalFrames <= 0 {
		return nil, fmt.Errorf("playback: total frames must be positive, got %d", cfg.TotalFrames)
	}
	if getFrame == nil {
		return nil, fmt.Errorf("playback: frame function is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("playback: sink function is required")
	}

	return &Controller{
		fps:      cfg.FPS,
		total:    cfg.TotalFrames,
		loop:     cfg.Loop,
		getFrame: getFrame,
		sink:     sink,
	}, nil
}

// Start spawns the playback loop. The controller starts paused; call
// Play() to begin delivering frames. Returns an error on double start.
func (c *Controller) Start(ctx context.Context) error {
	c.startedMu.Lock()
	defer c.startedMu.Unlock()

	if c.started {
		return fmt.Errorf("playback: controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.loopRun()

	slog.Info("playback: controller started",
		"fps", c.fps,
		"total_frames", c.total,
		"loop", c.loop,
	)
	return nil
}

// Stop shuts the playback loop down and waits for it to exit. Idempotent.
func (c *Controller) Stop() error {
	c.startedMu.Lock()
	if !c.started {
		c.startedMu.Unlock()
		return nil
	}
	c.startedMu.Unlock()

	c.cancel()
	c.wg.Wait()

	slog.Info("playback: controller stopped")
	return nil
}

// Play resumes frame delivery from the current position.
func (c *Controller) Play() {
	c.mu.Lock()
	c.playing = true
	c.mu.Unlock()
}

// Pause halts frame delivery; the position is kept.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.playing = false
	c.mu.Unlock()
}

// Seek moves the position to frame, clamped into [0, TotalFrames-1],
// and returns the position actually taken.
func (c *Controller) Seek(frame int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.current
	pos := frame
	if pos < 0 {
		pos = 0
	}
	if pos > c.total-1 {
		pos = c.total - 1
	}
	c.current = pos

	// Jumps are worth a trace; single-frame steps are not.
	if old-pos > 1 || pos-old > 1 {
		slog.Debug("playback: seek", "requested", frame, "actual", pos)
	}
	return pos
}

// SetTimeline updates the playback rate and timeline length, clamping the
// current position into the new range. Effective on the next tick, no
// restart needed.
func (c *Controller) SetTimeline(fps float64, totalFrames int) error {
	if fps < 0.1 || fps > 240 {
		return fmt.Errorf("playback: invalid FPS %.2f (must be 0.1-240)", fps)
	}
	if totalFrames <= 0 {
		return fmt.Errorf("playback: total frames must be positive, got %d", totalFrames)
	}

	c.mu.Lock()
	c.fps = fps
	c.total = totalFrames
	if c.current > totalFrames-1 {
		c.current = totalFrames - 1
	}
	c.mu.Unlock()

	slog.Debug("playback: timeline updated", "fps", fps, "total_frames", totalFrames)
	return nil
}

// State returns a snapshot of position, rate and delivery counters.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Playing:      c.playing,
		CurrentFrame: c.current,
		FPS:          c.fps,
		TotalFrames:  c.total,
		Delivered:    atomic.LoadUint64(&c.delivered),
		Missing:      atomic.LoadUint64(&c.missing),
	}
}

// loopRun is the playback goroutine: one frame per period while playing.
//
// The timer is re-armed with the time remaining after frame delivery, so
// the rate holds as long as FrameFunc+SinkFunc finish inside one period.
func (c *Controller) loopRun() {
	defer c.wg.Done()

	timer := time.NewTimer(c.period())
	defer timer.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		c.tick()

		next := c.period() - time.Since(start)
		if next < 0 {
			next = 0
		}
		timer.Reset(next)
	}
}

// period returns the current frame interval.
func (c *Controller) period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(float64(time.Second) / c.fps)
}

// tick delivers the current frame and advances the position.
func (c *Controller) tick() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	index := c.current

	// Advance, wrapping or pausing at the end of the timeline.
	c.current++
	if c.current >= c.total {
		if c.loop {
			c.current = 0
		} else {
			c.current = c.total - 1
			c.playing = false
		}
	}
	c.mu.Unlock()

	data, ok := c.getFrame(index)
	if !ok {
		atomic.AddUint64(&c.missing, 1)
		return
	}
	c.sink(index, data)
	atomic.AddUint64(&c.delivered, 1)
}
