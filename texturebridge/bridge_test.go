package texturebridge_test

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/flipsai/flipedit/texturebridge"
)

// patternFrame builds a width×height RGBA buffer with a deterministic,
// position-dependent byte pattern (no two adjacent bytes equal).
func patternFrame(width, height int) []byte {
	buf := make([]byte, width*height*4)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	return buf
}

// --- Copy correctness ---

// TestCopyFrameExactBytes validates that a valid copy transfers the full
// frame byte-for-byte and nothing else.
//
// Scenario:
//  1. Fill a 16x9 source with a known pattern
//  2. Copy into a zeroed destination with 32 bytes of tail slack
//  3. Assert: first width*height*4 bytes identical to source
//  4. Assert: tail bytes beyond the frame remain zero (no overrun)
func TestCopyFrameExactBytes(t *testing.T) {
	const width, height = 16, 9
	frameSize := width * height * 4

	src := patternFrame(width, height)
	dst := make([]byte, frameSize+32)

	status := texturebridge.CopyFrame(dst, src, width, height)
	if status != texturebridge.StatusOK {
		t.Fatalf("CopyFrame() = %v, want StatusOK", status)
	}

	if !bytes.Equal(dst[:frameSize], src) {
		t.Errorf("destination frame bytes differ from source")
	}

	for i := frameSize; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Fatalf("byte %d beyond frame was written: %#x", i, dst[i])
		}
	}
}

// TestCopyFrame2x2Scenario validates the canonical 2x2 RGBA case:
// red, green, blue, white pixels land byte-identical in the destination.
func TestCopyFrame2x2Scenario(t *testing.T) {
	src := []byte{
		0xFF, 0x00, 0x00, 0xFF, // red
		0x00, 0xFF, 0x00, 0xFF, // green
		0x00, 0x00, 0xFF, 0xFF, // blue
		0xFF, 0xFF, 0xFF, 0xFF, // white
	}
	dst := make([]byte, 16)

	status := texturebridge.CopyFrame(dst, src, 2, 2)
	if status != texturebridge.StatusOK {
		t.Fatalf("CopyFrame() = %v, want StatusOK", status)
	}
	if !bytes.Equal(dst, src) {
		t.Errorf("destination = % x, want % x", dst, src)
	}
}

// TestCopyFrameIdempotent validates that repeating the same copy leaves the
// destination exactly as a single copy would.
func TestCopyFrameIdempotent(t *testing.T) {
	const width, height = 8, 8
	src := patternFrame(width, height)

	once := make([]byte, width*height*4)
	twice := make([]byte, width*height*4)

	texturebridge.CopyFrame(once, src, width, height)
	texturebridge.CopyFrame(twice, src, width, height)
	texturebridge.CopyFrame(twice, src, width, height)

	if !bytes.Equal(once, twice) {
		t.Errorf("double copy differs from single copy")
	}
}

// --- Silent no-op contract ---

// TestCopyFrameNilSourceNoOp validates that a nil source leaves the
// destination untouched and reports the reason.
func TestCopyFrameNilSourceNoOp(t *testing.T) {
	dst := patternFrame(4, 4)
	want := append([]byte(nil), dst...)

	status := texturebridge.CopyFrame(dst, nil, 4, 4)
	if status != texturebridge.StatusNilSource {
		t.Errorf("CopyFrame(nil source) = %v, want StatusNilSource", status)
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("destination modified on nil source")
	}
}

// TestCopyFrameNilDestNoOp validates that a nil destination performs no
// write and does not panic.
func TestCopyFrameNilDestNoOp(t *testing.T) {
	src := patternFrame(4, 4)

	status := texturebridge.CopyFrame(nil, src, 4, 4)
	if status != texturebridge.StatusNilDest {
		t.Errorf("CopyFrame(nil dest) = %v, want StatusNilDest", status)
	}
}

// TestCopyFrameNonPositiveDimensions validates the no-op on zero and
// negative dimensions, regardless of buffer validity.
func TestCopyFrameNonPositiveDimensions(t *testing.T) {
	cases := []struct {
		name          string
		width, height int32
	}{
		{"zero width", 0, 4},
		{"negative width", -1, 4},
		{"zero height", 4, 0},
		{"negative height", 4, -1},
		{"negative width valid height", -5, 10},
	}

	src := patternFrame(8, 8)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := make([]byte, len(src))

			status := texturebridge.CopyFrame(dst, src, tc.width, tc.height)
			if status != texturebridge.StatusBadDimensions {
				t.Errorf("CopyFrame(%d, %d) = %v, want StatusBadDimensions",
					tc.width, tc.height, status)
			}
			for i, b := range dst {
				if b != 0 {
					t.Fatalf("byte %d written on invalid dimensions: %#x", i, b)
				}
			}
		})
	}
}

// TestCopyFrameShortBuffers validates the slice-only length checks: a copy
// that would read or write past a known slice length is refused whole.
func TestCopyFrameShortBuffers(t *testing.T) {
	full := patternFrame(4, 4) // 64 bytes

	status := texturebridge.CopyFrame(make([]byte, 64), full[:63], 4, 4)
	if status != texturebridge.StatusShortSource {
		t.Errorf("short source: got %v, want StatusShortSource", status)
	}

	dst := make([]byte, 63)
	status = texturebridge.CopyFrame(dst, full, 4, 4)
	if status != texturebridge.StatusShortDest {
		t.Errorf("short dest: got %v, want StatusShortDest", status)
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d written on short destination: %#x", i, b)
		}
	}
}

// --- Pointer-level boundary ---

// TestCopyFrameToTexturePointers validates the raw-pointer entry point with
// live buffers on both sides.
func TestCopyFrameToTexturePointers(t *testing.T) {
	const width, height = 2, 2
	src := []byte{
		0xFF, 0x00, 0x00, 0xFF,
		0x00, 0xFF, 0x00, 0xFF,
		0x00, 0x00, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	dst := make([]byte, 16)

	texturebridge.CopyFrameToTexture(
		unsafe.Pointer(&src[0]),
		unsafe.Pointer(&dst[0]),
		width, height,
	)

	if !bytes.Equal(dst, src) {
		t.Errorf("destination = % x, want % x", dst, src)
	}
}

// TestCopyFrameToTextureSilentNoOp validates that nil pointers and bad
// dimensions neither write nor crash at the pointer level.
func TestCopyFrameToTextureSilentNoOp(t *testing.T) {
	src := patternFrame(4, 4)
	dst := make([]byte, len(src))

	texturebridge.CopyFrameToTexture(nil, unsafe.Pointer(&dst[0]), 4, 4)
	texturebridge.CopyFrameToTexture(unsafe.Pointer(&src[0]), nil, 4, 4)
	texturebridge.CopyFrameToTexture(unsafe.Pointer(&src[0]), unsafe.Pointer(&dst[0]), -5, 10)
	texturebridge.CopyFrameToTexture(unsafe.Pointer(&src[0]), unsafe.Pointer(&dst[0]), 0, 0)

	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d written by a no-op call: %#x", i, b)
		}
	}
}

// --- Byte-count arithmetic ---

// TestFrameBytesWidened validates the widened byte-count math at realistic
// and extreme frame sizes.
func TestFrameBytesWidened(t *testing.T) {
	cases := []struct {
		name          string
		width, height int32
		want          uint64
		ok            bool
	}{
		{"720p", 1280, 720, 3_686_400, true},
		{"4k", 3840, 2160, 33_177_600, true},
		{"8k", 7680, 4320, 132_710_400, true},
		{"max int32 square", 1<<31 - 1, 1<<31 - 1, uint64(1<<31-1) * uint64(1<<31-1) * 4, true},
		{"zero width", 0, 720, 0, false},
		{"negative height", 1280, -1, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := texturebridge.FrameBytes(tc.width, tc.height)
			if ok != tc.ok || got != tc.want {
				t.Errorf("FrameBytes(%d, %d) = (%d, %v), want (%d, %v)",
					tc.width, tc.height, got, ok, tc.want, tc.ok)
			}
		})
	}
}
