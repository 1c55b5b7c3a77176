package videosource

import "time"

// Frame is a single decoded RGBA frame with metadata.
type Frame struct {
	// Seq is the monotonic sequence number assigned at decode time.
	Seq uint64
	// Timestamp is when the frame left the decoder.
	Timestamp time.Time
	// Width in pixels.
	Width int
	// Height in pixels.
	Height int
	// Data contains width*height*4 RGBA bytes (tightly packed).
	Data []byte
	// SourceName identifies the clip/stream this frame came from.
	SourceName string
	// TraceID is a unique identifier for per-frame tracing.
	TraceID string
}

// Config contains configuration for URI stream decode.
type Config struct {
	// URI is the media location (file://, http://, rtsp://). Required.
	URI string
	// Width and Height are the output geometry in pixels. Required.
	Width  int
	Height int
	// TargetFPS is the delivery rate (0.1 - 240).
	TargetFPS float64
	// SourceName identifies the stream in frames and logs.
	SourceName string
}

// Stats contains a snapshot of stream statistics.
type Stats struct {
	// FrameCount is the total number of frames decoded.
	FrameCount uint64
	// FramesDropped is the total number of frames dropped (consumer slow).
	FramesDropped uint64
	// DropRate is the percentage of frames dropped (0-100).
	DropRate float64
	// FPSTarget is the configured target FPS.
	FPSTarget float64
	// FPSReal is the measured FPS since Start.
	FPSReal float64
	// BytesRead is the total decoded bytes seen.
	BytesRead uint64
	// LatencyMS is milliseconds since the last frame.
	LatencyMS int64
	// SourceName identifies the stream.
	SourceName string
	// Resolution is the output geometry ("1280x720").
	Resolution string
	// IsRunning indicates whether the pipeline is live.
	IsRunning bool
}
