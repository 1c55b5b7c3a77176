// Package gstpipe builds and owns the GStreamer decode pipeline for
// videosource. Clients use the videosource public API.
package gstpipe

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Config contains configuration for decode pipeline creation.
type Config struct {
	URI       string
	Width     int
	Height    int
	TargetFPS float64
}

// Elements holds references to pipeline elements needed for hot-reload
// and cleanup.
type Elements struct {
	Pipeline   *gst.Pipeline
	AppSink    *app.Sink
	Decoder    *gst.Element // uridecodebin, dynamic pads
	Converter  *gst.Element
	VideoRate  *gst.Element
	CapsFilter *gst.Element
}

// CreatePipeline creates and configures the decode pipeline:
//
//	uridecodebin → videoconvert → videoscale → videorate → capsfilter(RGBA) → appsink
//
// The capsfilter locks RGBA8888 at the target geometry so every sample
// that reaches the appsink is texture-ready with no per-frame conversion
// on the Go side. The pipeline is configured but NOT started (state NULL);
// uridecodebin pads are dynamic and must be linked via OnPadAdded.
func CreatePipeline(cfg Config) (*Elements, error) {
	// Safe to call multiple times
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	decoder, err := gst.NewElement("uridecodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create uridecodebin: %w", err)
	}
	decoder.SetProperty("uri", cfg.URI)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0) // auto-detect cores
	converter.SetProperty("dither", 0)

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)     // drop, never duplicate
	videorate.SetProperty("skip-to-first", true) // no lead-in padding

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	caps := gst.NewCapsFromString(buildRGBACaps(cfg.Width, cfg.Height, cfg.TargetFPS))
	capsfilter.SetProperty("caps", caps)

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // decode as fast as allowed, videorate paces
	appsink.SetProperty("max-buffers", 1) // keep only latest frame
	appsink.SetProperty("drop", true)     // drop old frames
	appsink.SetProperty("qos", true)      // upstream drop before decode

	pipeline.AddMany(
		decoder,
		converter,
		scaler,
		videorate,
		capsfilter,
		appsink.Element,
	)

	// uridecodebin links in the pad-added callback; everything after the
	// converter is static.
	if err := gst.ElementLinkMany(
		converter,
		scaler,
		videorate,
		capsfilter,
		appsink.Element,
	); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	return &Elements{
		Pipeline:   pipeline,
		AppSink:    appsink,
		Decoder:    decoder,
		Converter:  converter,
		VideoRate:  videorate,
		CapsFilter: capsfilter,
	}, nil
}

// UpdateRateCaps swaps the capsfilter caps for a new target FPS without
// restarting the pipeline (hot-reload).
func UpdateRateCaps(capsfilter *gst.Element, fps float64, width, height int) error {
	if capsfilter == nil {
		return fmt.Errorf("capsfilter is nil")
	}

	newCaps := gst.NewCapsFromString(buildRGBACaps(width, height, fps))
	capsfilter.SetProperty("caps", newCaps)
	return nil
}

// DestroyPipeline sets the pipeline to NULL and releases its resources.
// Safe to call on an already-destroyed pipeline.
func DestroyPipeline(elements *Elements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}

	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// buildRGBACaps builds the output caps string with framerate as a
// fraction (0.5 Hz → 1/2, 25 Hz → 25/1).
func buildRGBACaps(width, height int, fps float64) string {
	numerator := 1
	denominator := 1

	if fps < 1.0 {
		denominator = int(1.0 / fps)
	} else {
		numerator = int(fps)
	}

	return fmt.Sprintf(
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/%d",
		width, height, numerator, denominator,
	)
}
