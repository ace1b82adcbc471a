//go:build coreclr_link && (darwin || linux)

package coreclr

/*
#include <stdlib.h>

int coreclr_initialize(const char* exePath, const char* appDomainFriendlyName,
	int propertyCount, const char** propertyKeys, const char** propertyValues,
	void** hostHandle, unsigned int* domainId);
int coreclr_shutdown(void* hostHandle, unsigned int domainId);
int coreclr_execute_assembly(void* hostHandle, unsigned int domainId,
	int argc, const char** argv, const char* managedAssemblyPath, unsigned int* exitCode);
int coreclr_create_delegate(void* hostHandle, unsigned int domainId,
	const char* entryPointAssemblyName, const char* entryPointTypeName,
	const char* entryPointMethodName, void** delegate);
*/
import "C"

import "unsafe"

// linkedLibrary calls the libcoreclr the binary was linked against. The
// linker flags live in the generated zz_coreclr_link.go.
type linkedLibrary struct{}

// Open returns the linked library. path is ignored: the dynamic loader
// already resolved libcoreclr through the rpath or LD_LIBRARY_PATH.
func Open(path string) (Library, error) { return linkedLibrary{}, nil }

func (linkedLibrary) Initialize(exePath, appDomainName string, props []Property) (HostHandle, DomainID, HResult) {
	cExe := C.CString(exePath)
	defer C.free(unsafe.Pointer(cExe))
	cName := C.CString(appDomainName)
	defer C.free(unsafe.Pointer(cName))
	keys, values := splitProperties(props)
	cKeys, freeKeys := cArray(keys)
	defer freeKeys()
	cValues, freeValues := cArray(values)
	defer freeValues()

	var handle unsafe.Pointer
	var domain C.uint
	hr := C.coreclr_initialize(cExe, cName, C.int(len(props)), cKeys, cValues, &handle, &domain)
	return HostHandle{p: uintptr(handle)}, DomainID(domain), HResult(hr)
}

func (linkedLibrary) Shutdown(h HostHandle, d DomainID) HResult {
	return HResult(C.coreclr_shutdown(unsafe.Pointer(h.p), C.uint(d)))
}

func (linkedLibrary) ExecuteAssembly(h HostHandle, d DomainID, argv []string, assemblyPath string) (uint32, HResult) {
	cArgv, freeArgv := cArray(argv)
	defer freeArgv()
	cPath := C.CString(assemblyPath)
	defer C.free(unsafe.Pointer(cPath))
	var exit C.uint
	hr := C.coreclr_execute_assembly(unsafe.Pointer(h.p), C.uint(d), C.int(len(argv)), cArgv, cPath, &exit)
	return uint32(exit), HResult(hr)
}

func (linkedLibrary) CreateDelegate(h HostHandle, d DomainID, assembly, typeName, method string) (Delegate, HResult) {
	cAsm := C.CString(assembly)
	defer C.free(unsafe.Pointer(cAsm))
	cType := C.CString(typeName)
	defer C.free(unsafe.Pointer(cType))
	cMethod := C.CString(method)
	defer C.free(unsafe.Pointer(cMethod))
	var fn unsafe.Pointer
	hr := C.coreclr_create_delegate(unsafe.Pointer(h.p), C.uint(d), cAsm, cType, cMethod, &fn)
	return Delegate{p: uintptr(fn)}, HResult(hr)
}

func (linkedLibrary) Close() error { return nil }

// cArray mallocs a nil-terminated array of C strings.
func cArray(ss []string) (**C.char, func()) {
	if len(ss) == 0 {
		return nil, func() {}
	}
	n := len(ss) + 1
	arr := (**C.char)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	view := unsafe.Slice(arr, n)
	for i, s := range ss {
		view[i] = C.CString(s)
	}
	view[len(ss)] = nil
	return arr, func() {
		for _, p := range view[:len(ss)] {
			C.free(unsafe.Pointer(p))
		}
		C.free(unsafe.Pointer(arr))
	}
}
