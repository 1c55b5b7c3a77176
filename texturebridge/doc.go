// Package texturebridge implements the frame-to-texture copy path between
// a decoded video frame and a host-owned texture buffer.
//
// This is the hot path of the FlipEdit native layer: once per rendered
// frame, the host (typically a Flutter engine through the C ABI in
// cmd/libflipedit) hands us two raw addresses and a pixel geometry, and we
// move exactly width*height*4 bytes of RGBA8888 data from one to the other.
//
// # Quick Start
//
// In-process callers use the slice-level API, which reports what happened:
//
//	status := texturebridge.CopyFrame(dst, src, 1280, 720)
//	if status != texturebridge.StatusOK {
//	    // nothing was written
//	}
//
// Foreign callers go through the pointer-level entry point, which keeps the
// original silent-failure contract (no status, no panic across the
// boundary):
//
//	texturebridge.CopyFrameToTexture(srcPtr, dstPtr, 1280, 720)
//
// # Contract
//
//   - Both buffers are borrowed for the duration of the call only. The
//     bridge never allocates, retains, or frees either region.
//   - Invalid input (nil pointer, non-positive dimension) is a silent
//     no-op at the pointer level: the destination is simply not updated
//     for that frame. The slice-level API surfaces the same outcome as a
//     CopyStatus value.
//   - The caller owns all synchronization. No other writer may touch the
//     source and no reader may consume the destination while the copy runs.
//   - Buffers are assumed tightly packed (stride == width*4). Overlapping
//     source and destination is undefined behavior, as with any raw copy.
//
// # Supported Frame Sizes
//
// The byte count is computed in uint64, so any dimensions representable as
// positive int32 values are safe from overflow, far beyond 8K video.
package texturebridge
