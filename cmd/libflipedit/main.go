// Command libflipedit is the c-shared entry point for the native layer.
// It exports the frame copy boundary plus a small engine surface
// (texture registry and render path) callable from the host UI through
// dart:ffi or any C FFI.
//
// Build: go build -buildmode=c-shared -o libflipedit.so ./cmd/libflipedit
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"log/slog"
	"os"
	"sync"
	"unsafe"

	pointer "github.com/mattn/go-pointer"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/flipsai/flipedit/config"
	"github.com/flipsai/flipedit/framecache"
	"github.com/flipsai/flipedit/texturebridge"
	"github.com/flipsai/flipedit/textureregistry"
)

// Result codes returned by the status-carrying exports. Zero is success;
// the values mirror texturebridge.CopyStatus so render results pass
// through unchanged.
const (
	resultOK            = C.int32_t(0)
	resultBadHandle     = C.int32_t(100)
	resultBadTextureID  = C.int32_t(101)
	resultTextureExists = C.int32_t(102)
	resultInternal      = C.int32_t(103)
)

var initOnce sync.Once

// engine bundles the per-handle state a host drives through the FFI.
type engine struct {
	registry *textureregistry.Registry
	cache    *framecache.Cache
	cfg      *config.Config
}

//export copyFrameToTexture
func copyFrameToTexture(sourceFrame *C.uint8_t, destTexture *C.uint8_t, width C.int32_t, height C.int32_t) {
	texturebridge.CopyFrameToTexture(
		unsafe.Pointer(sourceFrame),
		unsafe.Pointer(destTexture),
		int32(width),
		int32(height),
	)
}

//export frameBridgeInit
func frameBridgeInit() {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})))
		gst.Init(nil)
		slog.Info("libflipedit: runtime initialized")
	})
}

//export frameBridgeOpen
func frameBridgeOpen(configPath *C.char) unsafe.Pointer {
	frameBridgeInit()

	var cfg *config.Config
	if configPath != nil && C.GoString(configPath) != "" {
		loaded, err := config.Load(C.GoString(configPath))
		if err != nil {
			slog.Error("libflipedit: failed to load config", "path", C.GoString(configPath), "error", err)
			return nil
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	eng := &engine{
		registry: textureregistry.New(),
		cache:    framecache.New(cfg.Cache.MaxEntries),
		cfg:      cfg,
	}
	slog.Info("libflipedit: engine opened", "instance_id", cfg.InstanceID)
	return pointer.Save(eng)
}

//export frameBridgeClose
func frameBridgeClose(handle unsafe.Pointer) {
	if handle == nil {
		return
	}
	eng, ok := pointer.Restore(handle).(*engine)
	if !ok {
		return
	}
	pointer.Unref(handle)
	eng.registry.Close()
	eng.cache.Clear()
	slog.Info("libflipedit: engine closed", "instance_id", eng.cfg.InstanceID)
}

//export frameBridgeRegisterTexture
func frameBridgeRegisterTexture(handle unsafe.Pointer, textureID C.int64_t, width C.int32_t, height C.int32_t) C.int32_t {
	eng := restore(handle)
	if eng == nil {
		return resultBadHandle
	}
	if err := eng.registry.Register(int64(textureID), int32(width), int32(height)); err != nil {
		slog.Warn("libflipedit: register texture failed", "texture_id", int64(textureID), "error", err)
		return resultTextureExists
	}
	return resultOK
}

//export frameBridgeUnregisterTexture
func frameBridgeUnregisterTexture(handle unsafe.Pointer, textureID C.int64_t) C.int32_t {
	eng := restore(handle)
	if eng == nil {
		return resultBadHandle
	}
	if err := eng.registry.Unregister(int64(textureID)); err != nil {
		return resultBadTextureID
	}
	return resultOK
}

//export frameBridgeTextureCount
func frameBridgeTextureCount(handle unsafe.Pointer) C.int64_t {
	eng := restore(handle)
	if eng == nil {
		return 0
	}
	return C.int64_t(eng.registry.Count())
}

//export frameBridgeRenderTexture
func frameBridgeRenderTexture(handle unsafe.Pointer, textureID C.int64_t, dest *C.uint8_t, destLen C.uint64_t) C.int32_t {
	eng := restore(handle)
	if eng == nil {
		return resultBadHandle
	}
	if dest == nil || destLen == 0 {
		return C.int32_t(texturebridge.StatusNilDest)
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(dest)), uint64(destLen))
	status, err := eng.registry.Render(int64(textureID), dst)
	if err != nil {
		return resultBadTextureID
	}
	return C.int32_t(status)
}

// restore unwraps an engine handle; nil on a foreign or nil pointer.
func restore(handle unsafe.Pointer) *engine {
	if handle == nil {
		return nil
	}
	eng, ok := pointer.Restore(handle).(*engine)
	if !ok {
		return nil
	}
	return eng
}

func main() {}
