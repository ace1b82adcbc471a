// Package coreclr declares the CoreCLR hosting entry points and a small host
// built on top of them. It is structured into small files by concern:
//
//   - types.go: opaque tokens (HostHandle, Delegate), DomainID, HResult and
//     the Library interface, one method per exported runtime function.
//   - dynamic.go: Library backed by dlopen/dlsym through purego (default on
//     linux and darwin, no cgo needed).
//   - link_cgo.go: Library backed by cgo calls into a linked libcoreclr.
//     Enabled with `-tags=coreclr_link`; the -L/-l flags come from the file
//     written by `clrhost gen`.
//   - unsupported.go: Open fails with ErrUnsupportedPlatform elsewhere.
//   - host.go: Host interprets status codes and tracks the session.
//   - properties.go: helpers for the well-known runtime properties.
//   - metrics.go: prometheus counters for host calls.
//
// Library methods return the runtime's raw HResult without classifying it.
// Host is the layer that turns failed codes into errors.
package coreclr

//go:generate go run ../../cmd/clrhost gen --rpath
