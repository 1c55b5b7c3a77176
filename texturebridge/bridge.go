package texturebridge

import "unsafe"

// bytesPerPixel is fixed by the RGBA8888 texture format.
const bytesPerPixel = 4

// CopyStatus reports the outcome of a slice-level frame copy.
//
// The pointer-level boundary (CopyFrameToTexture) deliberately has no way
// to report failure; CopyStatus exists so in-process callers and tests can
// observe the no-op cases directly instead of diffing destination bytes.
type CopyStatus int

const (
	// StatusOK means exactly width*height*4 bytes were copied.
	StatusOK CopyStatus = iota
	// StatusNilSource means the source buffer was nil (no write occurred).
	StatusNilSource
	// StatusNilDest means the destination buffer was nil (no write occurred).
	StatusNilDest
	// StatusBadDimensions means width or height was not positive (no write occurred).
	StatusBadDimensions
	// StatusShortSource means the source slice held fewer than width*height*4 bytes.
	StatusShortSource
	// StatusShortDest means the destination slice held fewer than width*height*4 bytes.
	StatusShortDest
)

// String returns a human-readable status name.
func (s CopyStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNilSource:
		return "nil-source"
	case StatusNilDest:
		return "nil-dest"
	case StatusBadDimensions:
		return "bad-dimensions"
	case StatusShortSource:
		return "short-source"
	case StatusShortDest:
		return "short-dest"
	default:
		return "unknown"
	}
}

// FrameBytes returns the byte size of a width×height RGBA8888 frame.
//
// The multiplication is performed in uint64 so it cannot wrap for any
// positive int32 dimensions (worst case (2^31-1)^2 * 4 still fits uint64).
// ok is false when either dimension is not positive.
func FrameBytes(width, height int32) (size uint64, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, false
	}
	return uint64(width) * uint64(height) * bytesPerPixel, true
}

// CopyFrame copies one RGBA frame from src into dst and reports the outcome.
//
// Exactly width*height*4 bytes are copied on StatusOK; on any other status
// no byte of dst is written (no partial copy). Bytes of dst beyond the
// frame size are never touched.
//
// This is the bounds-checked in-process variant of the bridge. It rejects
// short buffers because slice lengths are known here; the pointer-level
// entry point cannot and does not.
func CopyFrame(dst, src []byte, width, height int32) CopyStatus {
	if src == nil {
		return StatusNilSource
	}
	if dst == nil {
		return StatusNilDest
	}

	size, ok := FrameBytes(width, height)
	if !ok {
		return StatusBadDimensions
	}

	if uint64(len(src)) < size {
		return StatusShortSource
	}
	if uint64(len(dst)) < size {
		return StatusShortDest
	}

	copy(dst[:size], src[:size])
	return StatusOK
}

// CopyFrameToTexture copies width*height*4 bytes from src to dst.
//
// This is the foreign-call contract: both arguments are raw addresses
// owned by the caller, assumed valid for the full frame size. Invalid
// input (nil pointer, non-positive dimension) is a silent no-op; there is
// no capacity check against the destination because its capacity is not
// knowable here. Never call with overlapping regions.
//
// The addresses are reinterpreted as borrowed byte slices of exactly the
// declared length for the duration of the call; nothing is retained after
// return.
func CopyFrameToTexture(src, dst unsafe.Pointer, width, height int32) {
	if src == nil || dst == nil {
		return
	}

	size, ok := FrameBytes(width, height)
	if !ok {
		return
	}

	srcView := unsafe.Slice((*byte)(src), size)
	dstView := unsafe.Slice((*byte)(dst), size)
	copy(dstView, srcView)
}
