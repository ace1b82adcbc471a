package coreclr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultAppDomain is used when StartOptions.AppDomain is empty.
const DefaultAppDomain = "clrhost"

// StartOptions configures Start.
type StartOptions struct {
	ExePath    string
	AppDomain  string
	Properties []Property
	Log        zerolog.Logger
}

// Host owns one initialized runtime and its default domain. Calls on the
// runtime itself are not serialized; whether they may overlap is up to the
// runtime.
type Host struct {
	lib    Library
	handle HostHandle
	domain DomainID
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Start initializes the runtime through lib.
func Start(lib Library, opts StartOptions) (*Host, error) {
	if lib == nil {
		return nil, errors.New("coreclr: nil library")
	}
	name := opts.AppDomain
	if name == "" {
		name = DefaultAppDomain
	}
	if err := checkText("exe path", opts.ExePath); err != nil {
		return nil, err
	}
	if err := checkText("app domain", name); err != nil {
		return nil, err
	}
	for _, p := range opts.Properties {
		if p.Name == "" {
			return nil, errors.New("coreclr: property with empty name")
		}
		if err := checkText("property "+p.Name, p.Name+p.Value); err != nil {
			return nil, err
		}
	}

	h, d, hr := lib.Initialize(opts.ExePath, name, opts.Properties)
	observe("initialize", hr)
	if hr.Failed() {
		opts.Log.Error().Str("hresult", hr.String()).Str("app_domain", name).Msg("coreclr initialize failed")
		return nil, &CallError{Op: "initialize", Code: hr}
	}
	if h.IsZero() {
		return nil, fmt.Errorf("coreclr: initialize returned %s without a host handle", hr)
	}
	hostsActive.Inc()
	opts.Log.Debug().Str("app_domain", name).Uint32("domain_id", uint32(d)).Int("properties", len(opts.Properties)).Msg("coreclr initialized")
	return &Host{lib: lib, handle: h, domain: d, log: opts.Log}, nil
}

// Domain returns the id of the domain created by Start.
func (h *Host) Domain() DomainID { return h.domain }

// ExecuteAssembly runs the managed entry point and returns its exit code.
func (h *Host) ExecuteAssembly(assemblyPath string, args []string) (int, error) {
	if err := h.open(); err != nil {
		return 0, err
	}
	if err := checkText("assembly path", assemblyPath); err != nil {
		return 0, err
	}
	for _, a := range args {
		if err := checkText("argument", a); err != nil {
			return 0, err
		}
	}
	exit, hr := h.lib.ExecuteAssembly(h.handle, h.domain, args, assemblyPath)
	observe("execute_assembly", hr)
	if hr.Failed() {
		return 0, &CallError{Op: "execute_assembly", Code: hr}
	}
	h.log.Debug().Str("assembly", assemblyPath).Uint32("exit_code", exit).Msg("assembly finished")
	return int(int32(exit)), nil
}

// CreateDelegate resolves assembly/type/method to a callable delegate.
func (h *Host) CreateDelegate(assembly, typeName, method string) (Delegate, error) {
	if err := h.open(); err != nil {
		return Delegate{}, err
	}
	for _, s := range []string{assembly, typeName, method} {
		if err := checkText("delegate name", s); err != nil {
			return Delegate{}, err
		}
	}
	d, hr := h.lib.CreateDelegate(h.handle, h.domain, assembly, typeName, method)
	observe("create_delegate", hr)
	if hr.Failed() {
		return Delegate{}, &CallError{Op: "create_delegate", Code: hr}
	}
	if d.IsZero() {
		return Delegate{}, fmt.Errorf("coreclr: create_delegate %s.%s returned no function", typeName, method)
	}
	return d, nil
}

// Shutdown stops the runtime. Only the first call reaches the library.
func (h *Host) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	hostsActive.Dec()
	hr := h.lib.Shutdown(h.handle, h.domain)
	observe("shutdown", hr)
	if hr.Failed() {
		return &CallError{Op: "shutdown", Code: hr}
	}
	h.log.Debug().Uint32("domain_id", uint32(h.domain)).Msg("coreclr shut down")
	return nil
}

func (h *Host) open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return nil
}

// checkText rejects strings the runtime would see truncated.
func checkText(what, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("coreclr: %s contains a NUL byte", what)
	}
	return nil
}
