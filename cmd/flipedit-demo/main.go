// Command flipedit-demo exercises the full native layer without a UI
// host: decode a clip, cache its frames, drive the playback clock over
// the cached timeline, publish frames into a registered texture and
// render them into a simulated host buffer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flipsai/flipedit/config"
	"github.com/flipsai/flipedit/emitter"
	"github.com/flipsai/flipedit/framecache"
	"github.com/flipsai/flipedit/playback"
	"github.com/flipsai/flipedit/textureregistry"
	"github.com/flipsai/flipedit/videosource"
)

const (
	version       = "v0.1.0"
	demoTextureID = int64(1)
)

type options struct {
	ConfigPath    string
	URI           string
	StatsInterval time.Duration
	Debug         bool
}

func main() {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	printBanner(cfg, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutdown signal received, stopping gracefully...")
		cancel()
	}()

	if err := run(ctx, cfg, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Demo failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Demo stopped gracefully")
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.ConfigPath, "config", "", "YAML config file (optional, defaults apply)")
	flag.StringVar(&opts.URI, "uri", "", "Media URI to decode (overrides config)")

	var statsIntervalSec int
	flag.IntVar(&statsIntervalSec, "stats-interval", 5, "Statistics reporting interval (seconds)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")

	flag.Parse()

	opts.StatsInterval = time.Duration(statsIntervalSec) * time.Second
	return opts
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.URI != "" {
		cfg.Video.URI = opts.URI
	}
	if cfg.Video.URI == "" {
		return nil, fmt.Errorf("a media URI is required (--uri or video.uri in config)")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	// 1. Decode source
	stream, err := videosource.NewURIStream(videosource.Config{
		URI:        cfg.Video.URI,
		Width:      cfg.Video.Width,
		Height:     cfg.Video.Height,
		TargetFPS:  cfg.Video.FPS,
		SourceName: cfg.Video.SourceName,
	})
	if err != nil {
		return fmt.Errorf("failed to create video source: %w", err)
	}

	// 2. Texture registry with one demo texture
	registry := textureregistry.New()
	defer registry.Close()
	if err := registry.Register(demoTextureID, int32(cfg.Texture.Width), int32(cfg.Texture.Height)); err != nil {
		return fmt.Errorf("failed to register texture: %w", err)
	}
	logger.Info("Texture registered",
		"texture_id", demoTextureID,
		"width", cfg.Texture.Width,
		"height", cfg.Texture.Height)

	// 3. Frame cache fed by the decoder, read by the playback clock
	cache := framecache.New(cfg.Cache.MaxEntries)

	// 4. Playback clock: cache → registry
	player, err := playback.New(
		playback.Config{
			FPS:         cfg.Playback.FPS,
			TotalFrames: cfg.Playback.TotalFrames,
			Loop:        cfg.Playback.Loop,
		},
		func(index int) ([]byte, bool) {
			return cache.Get(frameKey(cfg.Video.SourceName, index))
		},
		func(index int, data []byte) {
			err := registry.Publish(demoTextureID, textureregistry.Frame{
				Data:      data,
				Width:     int32(cfg.Texture.Width),
				Height:    int32(cfg.Texture.Height),
				Seq:       uint64(index),
				Timestamp: time.Now(),
			})
			if err != nil {
				logger.Debug("Publish rejected", "frame", index, "error", err)
			}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create playback controller: %w", err)
	}

	// 5. Start decode and fill the cache
	frameChan, err := stream.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start video source: %w", err)
	}
	logger.Info("Video source started", "uri", cfg.Video.URI)

	go cacheFrames(ctx, frameChan, cache, cfg, logger)

	// 6. Start the playback clock
	if err := player.Start(ctx); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	player.Play()
	logger.Info("Playback started",
		"fps", cfg.Playback.FPS,
		"total_frames", cfg.Playback.TotalFrames,
		"loop", cfg.Playback.Loop)

	// 7. State emitter (optional)
	var em *emitter.MQTTEmitter
	if cfg.EmitterEnabled() {
		em = emitter.NewMQTTEmitter(cfg, emitter.Providers{
			PlaybackState: player.State,
			TextureStats:  registry.Stats,
			SourceStats:   stream.Stats,
		})
		if err := em.Connect(ctx); err != nil {
			logger.Warn("Emitter disabled, broker unreachable", "error", err)
			em = nil
		} else if err := em.Start(ctx); err != nil {
			logger.Warn("Emitter failed to start", "error", err)
			em = nil
		}
	}

	// 8. Simulated host render loop + stats reporting
	hostBuffer := make([]byte, cfg.Texture.Width*cfg.Texture.Height*4)
	go renderAndReport(ctx, opts.StatsInterval, hostBuffer, registry, player, stream, cache, logger)

	// 9. Wait for shutdown
	<-ctx.Done()

	if em != nil {
		em.Close()
	}
	if err := player.Stop(); err != nil {
		logger.Error("Failed to stop playback gracefully", "error", err)
	}
	if err := stream.Stop(); err != nil {
		logger.Error("Failed to stop video source gracefully", "error", err)
	}

	printFinalStats(registry, player, stream, cache)
	return ctx.Err()
}

// cacheFrames drains the decoder and stores frames under their arrival
// index so the playback clock can address them as a timeline.
func cacheFrames(ctx context.Context, frames <-chan videosource.Frame, cache *framecache.Cache, cfg *config.Config, logger *slog.Logger) {
	index := 0
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				logger.Info("Decode finished", "frames_cached", index)
				return
			}
			cache.Put(frameKey(cfg.Video.SourceName, index), frame.Data)
			logger.Debug("Frame cached",
				"index", index,
				"seq", frame.Seq,
				"size_kb", len(frame.Data)/1024)
			index++
		}
	}
}

// renderAndReport periodically renders the demo texture into the host
// buffer and prints a stats line, standing in for the UI's paint loop.
func renderAndReport(ctx context.Context, interval time.Duration, hostBuffer []byte, registry *textureregistry.Registry, player *playback.Controller, stream *videosource.URIStream, cache *framecache.Cache, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := registry.Render(demoTextureID, hostBuffer)
			if err != nil {
				logger.Warn("Render failed", "error", err)
				continue
			}

			state := player.State()
			srcStats := stream.Stats()
			cacheStats := cache.Stats()

			logger.Info("Pipeline stats",
				"render_status", status.String(),
				"frame", state.CurrentFrame,
				"delivered", state.Delivered,
				"missing", state.Missing,
				"decoded", srcStats.FrameCount,
				"decode_fps", fmt.Sprintf("%.1f", srcStats.FPSReal),
				"drop_rate", fmt.Sprintf("%.1f%%", srcStats.DropRate),
				"cache_len", cache.Len(),
				"cache_hits", cacheStats.Hits,
				"cache_misses", cacheStats.Misses)
		}
	}
}

func frameKey(sourceName string, index int) string {
	return fmt.Sprintf("%s/%d", sourceName, index)
}

func printBanner(cfg *config.Config, opts options) {
	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        FlipEdit Native Layer - Pipeline Demo                  ║")
	fmt.Printf("║                    Version %-30s ║\n", version)
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Media URI:       %s\n", cfg.Video.URI)
	fmt.Printf("  Decode:          %dx%d @ %.2f fps\n", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	fmt.Printf("  Texture:         %dx%d\n", cfg.Texture.Width, cfg.Texture.Height)
	fmt.Printf("  Playback:        %.2f fps, %d frames, loop=%v\n",
		cfg.Playback.FPS, cfg.Playback.TotalFrames, cfg.Playback.Loop)
	fmt.Printf("  Cache:           %d entries max\n", cfg.Cache.MaxEntries)
	if cfg.EmitterEnabled() {
		fmt.Printf("  MQTT:            %s (every %dms)\n", cfg.MQTT.Broker, cfg.MQTT.StateIntervalMS)
	} else {
		fmt.Println("  MQTT:            disabled")
	}
	fmt.Printf("  Stats Interval:  %v\n", opts.StatsInterval)
	fmt.Println()
	fmt.Println("Pipeline:")
	fmt.Println("  videosource → framecache → playback → textureregistry → host buffer")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop gracefully")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}

func printFinalStats(registry *textureregistry.Registry, player *playback.Controller, stream *videosource.URIStream, cache *framecache.Cache) {
	state := player.State()
	srcStats := stream.Stats()
	regStats := registry.Stats()
	cacheStats := cache.Stats()

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("Final Statistics:")
	fmt.Printf("  Decoded:         %d frames (%.1f fps real, %.1f%% dropped)\n",
		srcStats.FrameCount, srcStats.FPSReal, srcStats.DropRate)
	fmt.Printf("  Delivered:       %d frames (%d missing ticks)\n",
		state.Delivered, state.Missing)
	fmt.Printf("  Cache:           %d entries, %d hits, %d misses, %d evictions\n",
		cache.Len(), cacheStats.Hits, cacheStats.Misses, cacheStats.Evictions)
	for id, ts := range regStats.Textures {
		fmt.Printf("  Texture %d:       %d published, %d rendered, %d dropped\n",
			id, ts.Published, ts.Rendered, ts.Dropped)
	}
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
