//go:build (darwin || linux) && !coreclr_link

package coreclr

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// dynamicLibrary calls libcoreclr through function pointers resolved at run
// time. Signatures follow coreclrhost.h.
type dynamicLibrary struct {
	handle uintptr

	initialize      func(exePath, appDomainName string, propertyCount int32, keys, values **byte, hostHandle *uintptr, domainID *uint32) int32
	shutdown        func(hostHandle uintptr, domainID uint32) int32
	executeAssembly func(hostHandle uintptr, domainID uint32, argc int32, argv **byte, assemblyPath string, exitCode *uint32) int32
	createDelegate  func(hostHandle uintptr, domainID uint32, assembly, typeName, method string, delegate *uintptr) int32
}

// Open loads the shared library at path and resolves the hosting functions.
func Open(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("coreclr: dlopen %s: %w", path, err)
	}
	lib := &dynamicLibrary{handle: h}
	syms := []struct {
		name string
		fptr any
	}{
		{"coreclr_initialize", &lib.initialize},
		{"coreclr_shutdown", &lib.shutdown},
		{"coreclr_execute_assembly", &lib.executeAssembly},
		{"coreclr_create_delegate", &lib.createDelegate},
	}
	for _, s := range syms {
		addr, err := purego.Dlsym(h, s.name)
		if err != nil {
			_ = purego.Dlclose(h)
			return nil, fmt.Errorf("coreclr: %s: missing symbol %s: %w", path, s.name, err)
		}
		purego.RegisterFunc(s.fptr, addr)
	}
	return lib, nil
}

func (l *dynamicLibrary) Initialize(exePath, appDomainName string, props []Property) (HostHandle, DomainID, HResult) {
	var pin runtime.Pinner
	defer pin.Unpin()
	keys, values := splitProperties(props)
	var handle uintptr
	var domain uint32
	hr := l.initialize(exePath, appDomainName, int32(len(props)),
		cStringArray(&pin, keys), cStringArray(&pin, values), &handle, &domain)
	return HostHandle{p: handle}, DomainID(domain), HResult(hr)
}

func (l *dynamicLibrary) Shutdown(h HostHandle, d DomainID) HResult {
	return HResult(l.shutdown(h.p, uint32(d)))
}

func (l *dynamicLibrary) ExecuteAssembly(h HostHandle, d DomainID, argv []string, assemblyPath string) (uint32, HResult) {
	var pin runtime.Pinner
	defer pin.Unpin()
	var exit uint32
	hr := l.executeAssembly(h.p, uint32(d), int32(len(argv)), cStringArray(&pin, argv), assemblyPath, &exit)
	return exit, HResult(hr)
}

func (l *dynamicLibrary) CreateDelegate(h HostHandle, d DomainID, assembly, typeName, method string) (Delegate, HResult) {
	var fn uintptr
	hr := l.createDelegate(h.p, uint32(d), assembly, typeName, method, &fn)
	return Delegate{p: fn}, HResult(hr)
}

func (l *dynamicLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

// cStringArray copies ss into NUL-terminated buffers and returns a pointer
// to a contiguous, nil-terminated array of them. Everything stays pinned
// until pin is released.
func cStringArray(pin *runtime.Pinner, ss []string) **byte {
	if len(ss) == 0 {
		return nil
	}
	arr := make([]*byte, len(ss)+1)
	for i, s := range ss {
		b := make([]byte, len(s)+1)
		copy(b, s)
		pin.Pin(&b[0])
		arr[i] = &b[0]
	}
	pin.Pin(&arr[0])
	return &arr[0]
}
