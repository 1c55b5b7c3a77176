package gstpipe

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is the internal frame struct used by callbacks (avoids an import
// cycle with the parent package, which re-declares the public Frame).
type Frame struct {
	Seq        uint64
	Timestamp  time.Time
	Width      int
	Height     int
	Data       []byte
	SourceName string
	TraceID    string
}

// CallbackContext holds the state GStreamer callbacks need.
type CallbackContext struct {
	FrameChan     chan<- Frame
	FrameCounter  *uint64 // atomic
	BytesRead     *uint64 // atomic
	FramesDropped *uint64 // atomic
	Width         int
	Height        int
	SourceName    string
}

// OnNewSample pulls a decoded RGBA sample from the appsink and forwards
// it as a Frame.
//
// The buffer is copied once (GStreamer reuses its buffers) and the send is
// non-blocking: a full channel drops the frame rather than stalling the
// streaming thread. A single bad sample skips the frame instead of
// terminating the stream.
func OnNewSample(sink *app.Sink, ctx *CallbackContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gstpipe: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gstpipe: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("gstpipe: empty buffer received")
		return gst.FlowOK
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	seq := atomic.AddUint64(ctx.FrameCounter, 1)
	atomic.AddUint64(ctx.BytesRead, uint64(len(frameData)))

	frame := Frame{
		Seq:        seq,
		Timestamp:  time.Now(),
		Width:      ctx.Width,
		Height:     ctx.Height,
		Data:       frameData,
		SourceName: ctx.SourceName,
		TraceID:    uuid.New().String(),
	}

	select {
	case ctx.FrameChan <- frame:
	default:
		atomic.AddUint64(ctx.FramesDropped, 1)
		slog.Debug("gstpipe: dropping frame, channel full",
			"seq", frame.Seq,
			"trace_id", frame.TraceID,
		)
	}

	return gst.FlowOK
}

// OnPadAdded links a uridecodebin video pad to the converter once the
// demuxer has discovered the streams.
//
// uridecodebin exposes pads dynamically and also produces audio pads;
// only video/* pads are linked, everything else is left unconnected.
func OnPadAdded(srcElement *gst.Element, srcPad *gst.Pad, sinkElement *gst.Element) {
	caps := srcPad.GetCurrentCaps()
	if caps != nil {
		structure := caps.GetStructureAt(0)
		if structure != nil && !strings.HasPrefix(structure.Name(), "video/") {
			slog.Debug("gstpipe: ignoring non-video pad",
				"pad", srcPad.GetName(),
				"caps", structure.Name(),
			)
			return
		}
	}

	sinkPad := sinkElement.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("gstpipe: failed to get sink pad from converter")
		return
	}
	if sinkPad.IsLinked() {
		slog.Debug("gstpipe: converter already linked, ignoring extra pad",
			"pad", srcPad.GetName(),
		)
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		slog.Error("gstpipe: failed to link decoder pad",
			"src_pad", srcPad.GetName(),
			"ret", ret,
		)
		return
	}

	slog.Debug("gstpipe: decoder pad linked", "src_pad", srcPad.GetName())
}
