package textureregistry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flipsai/flipedit/texturebridge"
)

// Public API errors - stable contract for hosts and the FFI layer.
var (
	ErrTextureExists   = errors.New("textureregistry: texture already registered")
	ErrTextureNotFound = errors.New("textureregistry: texture not found")
	ErrRegistryClosed  = errors.New("textureregistry: registry is closed")
	ErrBadDimensions   = errors.New("textureregistry: dimensions must be positive")
)

// Frame is a decoded RGBA frame handed to the registry.
//
// Data is shared by reference and MUST NOT be modified after Publish
// (immutability contract, same as the decode side's channel frames).
type Frame struct {
	Data      []byte
	Width     int32
	Height    int32
	Seq       uint64
	Timestamp time.Time
	TraceID   string
}

// TextureStats is a snapshot of one texture's mailbox counters.
type TextureStats struct {
	TextureID int64
	Width     int32
	Height    int32
	// Published counts frames accepted for this texture.
	Published uint64
	// Dropped counts frames overwritten before any render consumed them.
	Dropped uint64
	// Rendered counts successful Render calls.
	Rendered uint64
	// LastSeq is the sequence number of the most recently published frame.
	LastSeq uint64
	// LastPublishedAt is the wall-clock time of the last Publish.
	LastPublishedAt time.Time
}

// RegistryStats is a snapshot across all registered textures.
type RegistryStats struct {
	TotalPublished uint64
	Textures       map[int64]TextureStats
}

// slot is a per-texture latest-frame mailbox.
//
// frame holds the most recent published frame; it is kept (not consumed)
// across renders so a texture can repaint without a new frame, and it is
// only counted as dropped when a newer frame overwrites it before any
// render saw it.
type slot struct {
	mu     sync.Mutex
	width  int32
	height int32

	frame    *Frame
	rendered bool // true once the current frame has been rendered at least once
	blank    []byte

	published     uint64
	dropped       uint64
	renderCount   uint64
	lastSeq       uint64
	lastPublished time.Time
}

// Registry maps host texture IDs to frame mailboxes.
type Registry struct {
	mu             sync.RWMutex
	slots          map[int64]*slot
	closed         bool
	totalPublished uint64 // atomic
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		slots: make(map[int64]*slot),
	}
}

// Register adds a texture with its buffer geometry.
//
// Returns ErrTextureExists if the ID is already registered,
// ErrBadDimensions if either dimension is not positive.
func (r *Registry) Register(textureID int64, width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if _, exists := r.slots[textureID]; exists {
		return ErrTextureExists
	}

	r.slots[textureID] = &slot{width: width, height: height}
	return nil
}

// Unregister removes a texture. Pending frames for it are discarded.
func (r *Registry) Unregister(textureID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[textureID]; !exists {
		return ErrTextureNotFound
	}
	delete(r.slots, textureID)
	return nil
}

// Count returns the number of registered textures.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Dimensions returns the registered geometry of a texture.
func (r *Registry) Dimensions(textureID int64) (width, height int32, err error) {
	r.mu.RLock()
	s, exists := r.slots[textureID]
	r.mu.RUnlock()
	if !exists {
		return 0, 0, ErrTextureNotFound
	}
	return s.width, s.height, nil
}

// Publish stores frame as the texture's latest frame (non-blocking).
//
// Overwrite policy: a frame the render side never consumed is replaced and
// counted as dropped. Publishing to an unknown texture returns
// ErrTextureNotFound; after Close all publishes return ErrRegistryClosed.
func (r *Registry) Publish(textureID int64, frame Frame) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrRegistryClosed
	}
	s, exists := r.slots[textureID]
	r.mu.RUnlock()
	if !exists {
		return ErrTextureNotFound
	}

	atomic.AddUint64(&r.totalPublished, 1)

	s.mu.Lock()
	if s.frame != nil && !s.rendered {
		s.dropped++
	}
	s.frame = &frame
	s.rendered = false
	s.published++
	s.lastSeq = frame.Seq
	s.lastPublished = frame.Timestamp
	s.mu.Unlock()

	return nil
}

// Render copies the texture's latest frame into dst through texturebridge.
//
// When no frame has been published yet, a zeroed frame of the registered
// geometry is written instead so the host never samples stale memory.
// The frame is kept after rendering; repeated renders repaint the same
// frame until a newer one arrives.
//
// The returned CopyStatus is the bridge outcome (StatusOK on success,
// StatusShortDest when dst is smaller than the frame, and so on); err is
// non-nil only for registry-level failures.
func (r *Registry) Render(textureID int64, dst []byte) (texturebridge.CopyStatus, error) {
	r.mu.RLock()
	s, exists := r.slots[textureID]
	r.mu.RUnlock()
	if !exists {
		return texturebridge.StatusNilSource, ErrTextureNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.blankLocked()
	width, height := s.width, s.height
	if s.frame != nil {
		src = s.frame.Data
		width, height = s.frame.Width, s.frame.Height
	}

	status := texturebridge.CopyFrame(dst, src, width, height)
	if status == texturebridge.StatusOK {
		s.rendered = true
		s.renderCount++
	}
	return status, nil
}

// blankLocked lazily allocates the zero frame used before the first
// publish. Caller holds s.mu.
func (s *slot) blankLocked() []byte {
	if s.blank == nil {
		size, ok := texturebridge.FrameBytes(s.width, s.height)
		if !ok {
			return nil
		}
		s.blank = make([]byte, size)
	}
	return s.blank
}

// Stats returns a snapshot of all texture counters (non-blocking reads,
// may be slightly stale relative to in-flight publishes).
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	textures := make(map[int64]TextureStats, len(r.slots))
	for id, s := range r.slots {
		s.mu.Lock()
		textures[id] = TextureStats{
			TextureID:       id,
			Width:           s.width,
			Height:          s.height,
			Published:       s.published,
			Dropped:         s.dropped,
			Rendered:        s.renderCount,
			LastSeq:         s.lastSeq,
			LastPublishedAt: s.lastPublished,
		}
		s.mu.Unlock()
	}

	return RegistryStats{
		TotalPublished: atomic.LoadUint64(&r.totalPublished),
		Textures:       textures,
	}
}

// Close shuts the registry down. Subsequent Register and Publish calls
// fail with ErrRegistryClosed; idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.slots = make(map[int64]*slot)
}
