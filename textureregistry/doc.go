// Package textureregistry tracks the textures a host engine has created
// and holds the latest decoded frame for each one.
//
// The registry sits between the decode side (videosource, playback) and
// the render side (the host's texture upload). Each registered texture
// owns a single-slot mailbox: Publish overwrites whatever frame is there,
// Render copies the latest frame into a host-provided buffer through
// texturebridge. Frames are never queued; a texture that renders slower
// than frames arrive simply skips the frames it never asked for.
//
//	reg := textureregistry.New()
//	defer reg.Close()
//
//	reg.Register(textureID, 1280, 720)
//
//	// decode side, once per frame
//	reg.Publish(textureID, frame)
//
//	// render side, once per texture update
//	status, err := reg.Render(textureID, hostBuffer)
//
// Publish is non-blocking and safe from any goroutine. Render may run
// concurrently with Publish; the mailbox lock is held only for the
// pointer swap and the copy itself.
package textureregistry
