// Package videosource decodes a media URI into texture-ready RGBA frames
// using GStreamer.
//
// This is the acquisition side of the FlipEdit native layer: a clip on
// the timeline (file://, http://, rtsp://) is decoded, converted and
// scaled inside GStreamer so that every frame arriving on the Go side is
// already RGBA8888 at the requested geometry, ready for the texture
// registry with no per-frame conversion.
//
// # Quick Start
//
//	cfg := videosource.Config{
//	    URI:        "file:///clips/intro.mp4",
//	    Width:      1280,
//	    Height:     720,
//	    TargetFPS:  25.0,
//	    SourceName: "clip-intro",
//	}
//
//	stream, err := videosource.NewURIStream(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Stop()
//
//	frames, err := stream.Start(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for frame := range frames {
//	    // frame.Data is width*height*4 RGBA bytes
//	    registry.Publish(textureID, toRegistryFrame(frame))
//	}
//
// # Delivery Semantics
//
// Frames are delivered on a buffered channel with a non-blocking send:
// when the consumer lags, new frames are dropped (and counted), never
// queued. The appsink is configured the same way (max-buffers=1, drop),
// so latency stays bounded end to end. Pipeline pacing is done by
// videorate inside GStreamer; SetTargetFPS hot-swaps the caps without a
// restart.
//
// Requires a gstreamer1.0 runtime with the usual decode plugin sets.
package videosource
