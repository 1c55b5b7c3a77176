package videosource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/flipsai/flipedit/videosource/internal/gstpipe"
)

// URIStream decodes one media URI into a channel of RGBA frames.
type URIStream struct {
	// Configuration
	uri        string
	width      int
	height     int
	targetFPS  float64
	sourceName string

	// GStreamer elements (kept for hot-reload and cleanup)
	elements *gstpipe.Elements

	// Frame output
	frames chan Frame
	mu     sync.RWMutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Statistics (atomic)
	frameCount    uint64
	framesDropped uint64
	bytesRead     uint64
	started       time.Time
	lastFrameAt   time.Time

	framesClosed atomic.Bool
}

// NewURIStream creates a stream with fail-fast validation.
//
// Configuration errors are caught here, at load time; GStreamer itself is
// only touched in Start, so construction works on machines without a
// GStreamer runtime (tests, CI).
func NewURIStream(cfg Config) (*URIStream, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("videosource: URI is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf(
			"videosource: invalid geometry %dx%d (dimensions must be positive)",
			cfg.Width, cfg.Height,
		)
	}
	if cfg.TargetFPS < 0.1 || cfg.TargetFPS > 240 {
		return nil, fmt.Errorf(
			"videosource: invalid FPS %.2f (must be 0.1-240)",
			cfg.TargetFPS,
		)
	}

	s := &URIStream{
		uri:        cfg.URI,
		width:      cfg.Width,
		height:     cfg.Height,
		targetFPS:  cfg.TargetFPS,
		sourceName: cfg.SourceName,
		frames:     make(chan Frame, 10),
	}

	slog.Info("videosource: URI stream created",
		"uri", cfg.URI,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"target_fps", cfg.TargetFPS,
		"source_name", cfg.SourceName,
	)

	return s, nil
}

// Start builds the decode pipeline and returns the frame channel.
//
// Returns immediately; frames arrive asynchronously once the pipeline
// reaches PLAYING. The channel stays open until Stop.
func (s *URIStream) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, fmt.Errorf("videosource: stream already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	elements, err := gstpipe.CreatePipeline(gstpipe.Config{
		URI:       s.uri,
		Width:     s.width,
		Height:    s.height,
		TargetFPS: s.targetFPS,
	})
	if err != nil {
		return nil, fmt.Errorf("videosource: failed to create pipeline: %w", err)
	}
	s.elements = elements

	// Internal channel decouples the GStreamer streaming thread from the
	// public channel and its drop accounting.
	internalFrames := make(chan gstpipe.Frame, 10)

	callbackCtx := &gstpipe.CallbackContext{
		FrameChan:     internalFrames,
		FrameCounter:  &s.frameCount,
		BytesRead:     &s.bytesRead,
		FramesDropped: &s.framesDropped,
		Width:         s.width,
		Height:        s.height,
		SourceName:    s.sourceName,
	}

	localCtx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case <-localCtx.Done():
				return
			case internalFrame := <-internalFrames:
				publicFrame := Frame{
					Seq:        internalFrame.Seq,
					Timestamp:  internalFrame.Timestamp,
					Width:      internalFrame.Width,
					Height:     internalFrame.Height,
					Data:       internalFrame.Data,
					SourceName: internalFrame.SourceName,
					TraceID:    internalFrame.TraceID,
				}

				s.mu.Lock()
				s.lastFrameAt = time.Now()
				s.mu.Unlock()

				select {
				case s.frames <- publicFrame:
				case <-localCtx.Done():
					return
				default:
					atomic.AddUint64(&s.framesDropped, 1)
					slog.Debug("videosource: dropping frame, channel full",
						"seq", publicFrame.Seq,
						"trace_id", publicFrame.TraceID,
					)
				}
			}
		}
	}()

	s.elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return gstpipe.OnNewSample(sink, callbackCtx)
		},
	})

	// uridecodebin pads appear after stream discovery
	converter := s.elements.Converter
	s.elements.Decoder.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		gstpipe.OnPadAdded(self, srcPad, converter)
	})

	if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("videosource: failed to start pipeline: %w", err)
	}

	s.wg.Add(1)
	go s.monitorBus()

	slog.Info("videosource: stream started",
		"uri", s.uri,
		"note", "frames arrive asynchronously once pipeline reaches PLAYING",
	)

	return s.frames, nil
}

// monitorBus watches the pipeline bus for errors and end-of-stream.
//
// A URI stream ends naturally (unlike a camera), so EOS is not an error
// here: the pipeline is left parked and the consumer sees frames stop.
func (s *URIStream) monitorBus() {
	defer s.wg.Done()

	s.mu.RLock()
	elements := s.elements
	s.mu.RUnlock()
	if elements == nil || elements.Pipeline == nil {
		return
	}

	bus := elements.Pipeline.GetPipelineBus()

	for {
		select {
		case <-s.ctx.Done():
			slog.Debug("videosource: context cancelled, stopping bus monitor")
			return

		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Info("videosource: end of stream",
					"uri", s.uri,
					"frames_decoded", atomic.LoadUint64(&s.frameCount),
					"uptime", time.Since(s.started),
				)
				return

			case gst.MessageError:
				gerr := msg.ParseError()
				slog.Error("videosource: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"uri", s.uri,
					"frames_decoded", atomic.LoadUint64(&s.frameCount),
				)
				return

			case gst.MessageStateChanged:
				if msg.Source() == elements.Pipeline.GetName() {
					old, next := msg.ParseStateChanged()
					slog.Debug("videosource: pipeline state changed",
						"from", old,
						"to", next,
					)
				}
			}
		}
	}
}

// Stop gracefully shuts the stream down: cancels the context, waits for
// goroutines (3s bound), destroys the pipeline and closes the frame
// channel. Idempotent; the stream can be restarted afterwards.
func (s *URIStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		slog.Debug("videosource: stream not started, nothing to stop")
		return nil
	}

	slog.Info("videosource: stopping stream", "uri", s.uri)

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Debug("videosource: goroutines stopped cleanly")
	case <-time.After(3 * time.Second):
		slog.Warn("videosource: stop timeout exceeded, some goroutines may still be running")
	}

	if s.elements != nil {
		if err := gstpipe.DestroyPipeline(s.elements); err != nil {
			slog.Error("videosource: failed to destroy pipeline", "error", err)
		}
		s.elements = nil
	}

	if s.framesClosed.CompareAndSwap(false, true) {
		close(s.frames)
	}

	slog.Info("videosource: stream stopped",
		"frames_decoded", atomic.LoadUint64(&s.frameCount),
		"frames_dropped", atomic.LoadUint64(&s.framesDropped),
		"uptime", time.Since(s.started),
	)

	// Reset for restart
	s.cancel = nil
	s.ctx = nil
	s.frames = make(chan Frame, 10)
	s.framesClosed.Store(false)

	return nil
}

// SetTargetFPS updates the delivery rate without restarting the pipeline
// (capsfilter hot-reload, ~2s interruption). The previous rate is restored
// on failure.
func (s *URIStream) SetTargetFPS(fps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fps < 0.1 || fps > 240 {
		return fmt.Errorf("videosource: invalid FPS %.2f (must be 0.1-240)", fps)
	}
	if s.elements == nil || s.elements.CapsFilter == nil {
		return fmt.Errorf("videosource: stream not running")
	}

	oldFPS := s.targetFPS
	slog.Info("videosource: updating target FPS", "old_fps", oldFPS, "new_fps", fps)

	if err := gstpipe.UpdateRateCaps(s.elements.CapsFilter, fps, s.width, s.height); err != nil {
		slog.Warn("videosource: FPS update failed, rolling back",
			"error", err,
			"old_fps", oldFPS,
		)
		if rollbackErr := gstpipe.UpdateRateCaps(s.elements.CapsFilter, oldFPS, s.width, s.height); rollbackErr != nil {
			slog.Error("videosource: rollback failed, pipeline may be inconsistent",
				"rollback_error", rollbackErr,
			)
		}
		return fmt.Errorf("videosource: failed to update FPS: %w", err)
	}

	s.targetFPS = fps
	return nil
}

// Stats returns a snapshot of stream statistics. Thread-safe.
func (s *URIStream) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frameCount := atomic.LoadUint64(&s.frameCount)
	framesDropped := atomic.LoadUint64(&s.framesDropped)

	var fpsReal float64
	if !s.started.IsZero() {
		if uptime := time.Since(s.started).Seconds(); uptime > 0 {
			fpsReal = float64(frameCount) / uptime
		}
	}

	var dropRate float64
	if total := frameCount + framesDropped; total > 0 {
		dropRate = float64(framesDropped) / float64(total) * 100.0
	}

	var latencyMS int64
	if !s.lastFrameAt.IsZero() {
		latencyMS = time.Since(s.lastFrameAt).Milliseconds()
	}

	return Stats{
		FrameCount:    frameCount,
		FramesDropped: framesDropped,
		DropRate:      dropRate,
		FPSTarget:     s.targetFPS,
		FPSReal:       fpsReal,
		BytesRead:     atomic.LoadUint64(&s.bytesRead),
		LatencyMS:     latencyMS,
		SourceName:    s.sourceName,
		Resolution:    fmt.Sprintf("%dx%d", s.width, s.height),
		IsRunning:     s.elements != nil && s.cancel != nil,
	}
}
