// Package emitter publishes the native layer's operational state over
// MQTT so external tooling (dashboards, the desktop shell's monitor
// panel) can observe playback position, texture health and decode
// statistics without polling the process.
//
// Payloads are msgpack-encoded snapshots published at a fixed interval.
// The emitter is strictly an observer: it reads snapshots through
// injected functions and never touches the frame path.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/flipsai/flipedit/config"
	"github.com/flipsai/flipedit/playback"
	"github.com/flipsai/flipedit/textureregistry"
	"github.com/flipsai/flipedit/videosource"
)

// PlaybackPayload is the wire form of a playback state snapshot.
type PlaybackPayload struct {
	InstanceID   string  `msgpack:"instance_id"`
	Playing      bool    `msgpack:"playing"`
	CurrentFrame int     `msgpack:"current_frame"`
	FPS          float64 `msgpack:"fps"`
	TotalFrames  int     `msgpack:"total_frames"`
	Delivered    uint64  `msgpack:"delivered"`
	Missing      uint64  `msgpack:"missing"`
	Timestamp    int64   `msgpack:"ts"`
}

// TexturePayload is the wire form of one texture's counters.
type TexturePayload struct {
	InstanceID string `msgpack:"instance_id"`
	TextureID  int64  `msgpack:"texture_id"`
	Width      int32  `msgpack:"width"`
	Height     int32  `msgpack:"height"`
	Published  uint64 `msgpack:"published"`
	Dropped    uint64 `msgpack:"dropped"`
	Rendered   uint64 `msgpack:"rendered"`
	LastSeq    uint64 `msgpack:"last_seq"`
	Timestamp  int64  `msgpack:"ts"`
}

// SourcePayload is the wire form of a decode source snapshot.
type SourcePayload struct {
	InstanceID    string  `msgpack:"instance_id"`
	SourceName    string  `msgpack:"source_name"`
	FrameCount    uint64  `msgpack:"frame_count"`
	FramesDropped uint64  `msgpack:"frames_dropped"`
	DropRate      float64 `msgpack:"drop_rate"`
	FPSReal       float64 `msgpack:"fps_real"`
	Resolution    string  `msgpack:"resolution"`
	IsRunning     bool    `msgpack:"is_running"`
	Timestamp     int64   `msgpack:"ts"`
}

// Providers supplies the snapshot sources. Nil fields disable the
// corresponding topic.
type Providers struct {
	PlaybackState func() playback.State
	TextureStats  func() textureregistry.RegistryStats
	SourceStats   func() videosource.Stats
}

// Stats tracks emitter operation.
type Stats struct {
	Published map[string]uint64
	Errors    uint64
	Connected bool
}

// MQTTEmitter publishes state snapshots to an MQTT broker.
type MQTTEmitter struct {
	cfg       *config.Config
	providers Providers
	Client    mqtt.Client // exported for control-plane reuse

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
	connected bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMQTTEmitter creates an emitter; it does not connect yet.
func NewMQTTEmitter(cfg *config.Config, providers Providers) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:       cfg,
		providers: providers,
		published: make(map[string]uint64),
	}
}

// Connect establishes the broker connection with automatic retry and
// reconnect, then returns.
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.MQTT.Broker))
	opts.SetClientID(e.cfg.InstanceID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		slog.Info("emitter: mqtt connection established",
			"broker", e.cfg.MQTT.Broker,
			"client_id", e.cfg.InstanceID,
		)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("emitter: mqtt connection lost", "error", err)
	}

	e.Client = mqtt.NewClient(opts)

	token := e.Client.Connect()
	select {
	case <-ctx.Done():
		return fmt.Errorf("emitter: connect cancelled: %w", ctx.Err())
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("emitter: failed to connect to %s: %w", e.cfg.MQTT.Broker, err)
	}
	return nil
}

// Start spawns the periodic publish loop. Connect must have succeeded.
func (e *MQTTEmitter) Start(ctx context.Context) error {
	if e.Client == nil {
		return fmt.Errorf("emitter: not connected")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	interval := time.Duration(e.cfg.MQTT.StateIntervalMS) * time.Millisecond

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				e.publishAll()
			}
		}
	}()

	slog.Info("emitter: state publishing started", "interval", interval)
	return nil
}

// publishAll publishes one snapshot per configured topic.
func (e *MQTTEmitter) publishAll() {
	now := time.Now().UnixMilli()

	if e.providers.PlaybackState != nil && e.cfg.MQTT.Topics.PlaybackState != "" {
		state := e.providers.PlaybackState()
		e.publish(e.cfg.MQTT.Topics.PlaybackState, PlaybackPayload{
			InstanceID:   e.cfg.InstanceID,
			Playing:      state.Playing,
			CurrentFrame: state.CurrentFrame,
			FPS:          state.FPS,
			TotalFrames:  state.TotalFrames,
			Delivered:    state.Delivered,
			Missing:      state.Missing,
			Timestamp:    now,
		})
	}

	if e.providers.TextureStats != nil && e.cfg.MQTT.Topics.TextureStats != "" {
		stats := e.providers.TextureStats()
		for _, ts := range stats.Textures {
			e.publish(e.cfg.MQTT.Topics.TextureStats, TexturePayload{
				InstanceID: e.cfg.InstanceID,
				TextureID:  ts.TextureID,
				Width:      ts.Width,
				Height:     ts.Height,
				Published:  ts.Published,
				Dropped:    ts.Dropped,
				Rendered:   ts.Rendered,
				LastSeq:    ts.LastSeq,
				Timestamp:  now,
			})
		}
	}

	if e.providers.SourceStats != nil && e.cfg.MQTT.Topics.SourceStats != "" {
		stats := e.providers.SourceStats()
		e.publish(e.cfg.MQTT.Topics.SourceStats, SourcePayload{
			InstanceID:    e.cfg.InstanceID,
			SourceName:    stats.SourceName,
			FrameCount:    stats.FrameCount,
			FramesDropped: stats.FramesDropped,
			DropRate:      stats.DropRate,
			FPSReal:       stats.FPSReal,
			Resolution:    stats.Resolution,
			IsRunning:     stats.IsRunning,
			Timestamp:     now,
		})
	}
}

// publish encodes payload as msgpack and fires it at topic (QoS 0,
// state snapshots are superseded by the next interval anyway).
func (e *MQTTEmitter) publish(topic string, payload interface{}) {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		slog.Error("emitter: failed to encode payload", "topic", topic, "error", err)
		return
	}

	token := e.Client.Publish(topic, 0, false, data)
	// Fire-and-forget; errors surface through the token asynchronously
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			e.mu.Lock()
			e.errors++
			e.mu.Unlock()
			slog.Warn("emitter: publish failed", "topic", topic, "error", err)
			return
		}
		e.mu.Lock()
		e.published[topic]++
		e.mu.Unlock()
	}()
}

// Stats returns a snapshot of per-topic publish counts.
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for topic, count := range e.published {
		published[topic] = count
	}
	return Stats{
		Published: published,
		Errors:    e.errors,
		Connected: e.connected,
	}
}

// Close stops the publish loop and disconnects from the broker.
// Idempotent.
func (e *MQTTEmitter) Close() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.wg.Wait()

	if e.Client != nil && e.Client.IsConnected() {
		e.Client.Disconnect(250)
		slog.Info("emitter: disconnected from broker")
	}
}
