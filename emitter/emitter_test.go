package emitter_test

import (
	"context"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/flipsai/flipedit/config"
	"github.com/flipsai/flipedit/emitter"
	"github.com/flipsai/flipedit/playback"
)

// Scenario: an emitter that never connected must refuse to start and
// must survive Close without touching a client.
func TestEmitterStartRequiresConnection(t *testing.T) {
	cfg := config.Default()
	e := emitter.NewMQTTEmitter(cfg, emitter.Providers{})

	if err := e.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail before Connect")
	}

	// Close on a never-connected emitter must be a no-op.
	e.Close()
	e.Close()
}

// Scenario: Stats on a fresh emitter reports zero activity and a copy
// the caller can mutate freely.
func TestEmitterStatsFresh(t *testing.T) {
	e := emitter.NewMQTTEmitter(config.Default(), emitter.Providers{})

	stats := e.Stats()
	if stats.Connected {
		t.Error("fresh emitter should not report connected")
	}
	if stats.Errors != 0 {
		t.Errorf("fresh emitter errors = %d, want 0", stats.Errors)
	}
	if len(stats.Published) != 0 {
		t.Errorf("fresh emitter published = %v, want empty", stats.Published)
	}

	// Writing into the returned map must not corrupt internal state.
	stats.Published["bogus/topic"] = 999
	if got := e.Stats().Published["bogus/topic"]; got != 0 {
		t.Errorf("internal state leaked through Stats map, got %d", got)
	}
}

// Scenario: the playback payload is the wire contract consumed by the
// desktop shell; field names must stay stable.
func TestPlaybackPayloadWireNames(t *testing.T) {
	state := playback.State{
		Playing:      true,
		CurrentFrame: 42,
		FPS:          30.0,
		TotalFrames:  300,
		Delivered:    41,
		Missing:      1,
	}
	payload := emitter.PlaybackPayload{
		InstanceID:   "test-instance",
		Playing:      state.Playing,
		CurrentFrame: state.CurrentFrame,
		FPS:          state.FPS,
		TotalFrames:  state.TotalFrames,
		Delivered:    state.Delivered,
		Missing:      state.Missing,
		Timestamp:    1700000000000,
	}

	data, err := msgpack.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{
		"instance_id", "playing", "current_frame", "fps",
		"total_frames", "delivered", "missing", "ts",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing wire field %q", key)
		}
	}
}
