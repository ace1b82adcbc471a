package coreclr

import (
	"errors"
	"fmt"
)

// HostHandle identifies one initialized runtime. It is only meaningful to
// the runtime and cannot be dereferenced.
type HostHandle struct{ p uintptr }

// IsZero reports whether the handle was never filled in by the runtime.
func (h HostHandle) IsZero() bool { return h.p == 0 }

// Delegate is a callable entry point into managed code. Use Bind to call it.
type Delegate struct{ p uintptr }

// IsZero reports whether the delegate is empty.
func (d Delegate) IsZero() bool { return d.p == 0 }

// DomainID identifies an application domain inside a host.
type DomainID uint32

// HResult is the status code returned by the runtime.
type HResult int32

// Succeeded follows the HRESULT convention: non-negative is success.
func (hr HResult) Succeeded() bool { return hr >= 0 }

// Failed is the inverse of Succeeded.
func (hr HResult) Failed() bool { return hr < 0 }

func (hr HResult) String() string { return fmt.Sprintf("0x%08X", uint32(hr)) }

// Property is one runtime property passed to Initialize.
type Property struct {
	Name  string
	Value string
}

// Library mirrors the exported CoreCLR hosting functions. Strings are passed
// as NUL-terminated UTF-8 copies that live for the duration of the call;
// arrays are contiguous with an explicit count.
type Library interface {
	// Initialize starts the runtime and creates the default domain.
	Initialize(exePath, appDomainName string, props []Property) (HostHandle, DomainID, HResult)
	// Shutdown unloads the domain and stops the runtime.
	Shutdown(h HostHandle, d DomainID) HResult
	// ExecuteAssembly runs the assembly's entry point with argv.
	ExecuteAssembly(h HostHandle, d DomainID, argv []string, assemblyPath string) (uint32, HResult)
	// CreateDelegate looks up a static method and returns a native callable.
	CreateDelegate(h HostHandle, d DomainID, assembly, typeName, method string) (Delegate, HResult)
	// Close releases the library itself.
	Close() error
}

var (
	// ErrUnsupportedPlatform is returned where no loader exists for the OS.
	ErrUnsupportedPlatform = errors.New("coreclr: unsupported platform")
	// ErrHostClosed is returned by Host methods after Shutdown.
	ErrHostClosed = errors.New("coreclr: host is shut down")
)

// CallError is a failed status code from one runtime function.
type CallError struct {
	Op   string
	Code HResult
}

func (e *CallError) Error() string {
	return fmt.Sprintf("coreclr: %s failed: hresult %s", e.Op, e.Code)
}

// IsCallError reports whether err wraps a *CallError.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

func splitProperties(props []Property) (keys, values []string) {
	keys = make([]string, len(props))
	values = make([]string, len(props))
	for i, p := range props {
		keys[i] = p.Name
		values[i] = p.Value
	}
	return keys, values
}
