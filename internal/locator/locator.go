// Package locator finds the CoreCLR shared library on the build host and
// turns the result into linker directives.
//
// Precedence is strict and short-circuiting:
//
//  1. CLRHOST_CORECLR_ROOT, used verbatim as the directory holding the library.
//  2. CLRHOST_SDK_ROOT, then the global SDK path, then $HOME/.dotnet; the
//     shared framework directory below the SDK root becomes the root.
//
// Resolve is a pure function of its inputs; Locator adds logging.
package locator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	RootVar    = "CLRHOST_CORECLR_ROOT"
	SDKRootVar = "CLRHOST_SDK_ROOT"
	HomeVar    = "HOME"

	SharedDir        = "shared"
	FrameworkName    = "Microsoft.NETCore.App"
	FrameworkVersion = "1.0.0"

	// LinkName is passed to the linker as -l<LinkName>.
	LinkName = "coreclr"
)

// Source records which precedence step produced the root.
type Source int

const (
	SourceRootOverride Source = iota + 1
	SourceSDKOverride
	SourceGlobalSDK
	SourceUserSDK
)

func (s Source) String() string {
	switch s {
	case SourceRootOverride:
		return "root-override"
	case SourceSDKOverride:
		return "sdk-override"
	case SourceGlobalSDK:
		return "global-sdk"
	case SourceUserSDK:
		return "user-sdk"
	default:
		return "unknown"
	}
}

// vars lists the environment variables read to arrive at s, in lookup order.
func (s Source) vars() []string {
	switch s {
	case SourceRootOverride:
		return []string{RootVar}
	case SourceSDKOverride, SourceGlobalSDK:
		return []string{RootVar, SDKRootVar}
	case SourceUserSDK:
		return []string{RootVar, SDKRootVar, HomeVar}
	default:
		return nil
	}
}

// LinkPlan is the single successful outcome of discovery.
type LinkPlan struct {
	Root        string `json:"root"`
	LibraryFile string `json:"library_file"`
	LinkName    string `json:"link_name"`
	Source      Source `json:"-"`
	SourceName  string `json:"source"`
	// SDKRoot is empty when the root came from CLRHOST_CORECLR_ROOT.
	SDKRoot string `json:"sdk_root,omitempty"`
}

// SharedFrameworkPath joins the fixed framework name and version onto sdkRoot.
func SharedFrameworkPath(sdkRoot string) string {
	return filepath.Join(sdkRoot, SharedDir, FrameworkName, FrameworkVersion)
}

// Resolve selects exactly one root directory or fails.
func Resolve(env Environment, probe Prober, p Platform) (LinkPlan, error) {
	plan := LinkPlan{LibraryFile: p.LibraryFile, LinkName: LinkName}

	if v := env.Getenv(RootVar); v != "" {
		plan.Root = v
		plan.Source = SourceRootOverride
	} else {
		sdk, src, err := findSDKRoot(env, probe, p)
		if err != nil {
			return LinkPlan{}, err
		}
		fw := SharedFrameworkPath(sdk)
		if !probe.IsDir(fw) {
			vars := src.vars()
			return LinkPlan{}, &Error{
				Kind: RootNotFound,
				Message: fmt.Sprintf("SDK '%s' (from %s) exists, but expected shared framework '%s %s' could not be found at '%s'; consulted %s",
					sdk, src, FrameworkName, FrameworkVersion, fw, strings.Join(vars, ", ")),
				Tried: []string{fw},
				Vars:  vars,
			}
		}
		plan.Root = fw
		plan.SDKRoot = sdk
		plan.Source = src
	}
	plan.SourceName = plan.Source.String()

	lib := filepath.Join(plan.Root, p.LibraryFile)
	if plan.Source == SourceRootOverride && !probe.IsDir(plan.Root) {
		return LinkPlan{}, &Error{
			Kind:    RootNotFound,
			Message: fmt.Sprintf("CoreCLR root '%s' set by %s is not a directory", plan.Root, RootVar),
			Tried:   []string{plan.Root},
			Vars:    []string{RootVar},
		}
	}
	if !probe.IsFile(lib) {
		vars := plan.Source.vars()
		return LinkPlan{}, &Error{
			Kind: RootNotFound,
			Message: fmt.Sprintf("CoreCLR root '%s' (from %s) does not contain '%s'; consulted %s",
				plan.Root, plan.Source, p.LibraryFile, strings.Join(vars, ", ")),
			Tried: []string{lib},
			Vars:  vars,
		}
	}
	return plan, nil
}

func findSDKRoot(env Environment, probe Prober, p Platform) (string, Source, error) {
	if v := env.Getenv(SDKRootVar); v != "" {
		return v, SourceSDKOverride, nil
	}
	var tried []string
	if p.GlobalSDKPath != "" {
		if probe.IsDir(p.GlobalSDKPath) {
			return p.GlobalSDKPath, SourceGlobalSDK, nil
		}
		tried = append(tried, p.GlobalSDKPath)
	}
	if user, ok := userSDKPath(env, p); ok {
		if probe.IsDir(user) {
			return user, SourceUserSDK, nil
		}
		tried = append(tried, user)
	}
	return "", 0, sdkNotFound(p, tried)
}

func sdkNotFound(p Platform, tried []string) error {
	var where string
	switch {
	case !p.Discovery():
		where = fmt.Sprintf("no default SDK locations are known for %s", p.GOOS)
	case len(tried) == 1:
		where = fmt.Sprintf("tried global path '%s' (%s is unset)", tried[0], HomeVar)
	default:
		quoted := make([]string, len(tried))
		for i, t := range tried {
			quoted[i] = "'" + t + "'"
		}
		where = "tried " + strings.Join(quoted, " and ")
	}
	return &Error{
		Kind: SdkNotFound,
		Message: fmt.Sprintf("could not find SDK root, %s. Try setting '%s' to the root of the SDK, or '%s' to the directory containing %s",
			where, SDKRootVar, RootVar, p.LibraryFile),
		Tried: tried,
		Vars:  []string{SDKRootVar, RootVar},
	}
}

// Locator runs Resolve against an environment and filesystem with logging.
type Locator struct {
	Env      Environment
	Probe    Prober
	Platform Platform
	Log      zerolog.Logger
}

// New returns a Locator for the host OS, process environment and filesystem.
func New(log zerolog.Logger) *Locator {
	return &Locator{Env: OSEnv{}, Probe: OSProber{}, Platform: HostPlatform(), Log: log}
}

// Locate resolves the plan and logs how it got there.
func (l *Locator) Locate() (LinkPlan, error) {
	env := l.Env
	if env == nil {
		env = OSEnv{}
	}
	probe := l.Probe
	if probe == nil {
		probe = OSProber{}
	}
	plat := l.Platform
	if plat.LibraryFile == "" {
		plat = HostPlatform()
	}
	l.Log.Debug().
		Str("goos", plat.GOOS).
		Str("library", plat.LibraryFile).
		Bool(RootVar, env.Getenv(RootVar) != "").
		Msg("locating coreclr")

	plan, err := Resolve(env, probe, plat)
	if err != nil {
		l.Log.Error().Err(err).Strs("tried", triedOf(err)).Msg("coreclr discovery failed")
		return LinkPlan{}, err
	}
	l.Log.Info().
		Str("root", plan.Root).
		Str("source", plan.SourceName).
		Str("sdk_root", plan.SDKRoot).
		Msg("coreclr located")
	return plan, nil
}

func triedOf(err error) []string {
	if le, ok := err.(*Error); ok {
		return le.Tried
	}
	return nil
}
