package locator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeFS answers probes from fixed sets and records every path asked about.
type fakeFS struct {
	dirs   map[string]bool
	files  map[string]bool
	probed []string
}

func newFakeFS() *fakeFS { return &fakeFS{dirs: map[string]bool{}, files: map[string]bool{}} }

func (f *fakeFS) dir(p string) *fakeFS  { f.dirs[p] = true; return f }
func (f *fakeFS) file(p string) *fakeFS { f.files[p] = true; return f }

func (f *fakeFS) IsDir(p string) bool  { f.probed = append(f.probed, p); return f.dirs[p] }
func (f *fakeFS) IsFile(p string) bool { f.probed = append(f.probed, p); return f.files[p] }

// recordingEnv tracks which keys were read.
type recordingEnv struct {
	MapEnv
	read []string
}

func (r *recordingEnv) Getenv(k string) string {
	r.read = append(r.read, k)
	return r.MapEnv.Getenv(k)
}

var linux = PlatformFor("linux")

func fw(sdk string) string { return filepath.Join(sdk, "shared", "Microsoft.NETCore.App", "1.0.0") }

func TestResolve_RootOverrideShortCircuits(t *testing.T) {
	for _, root := range []string{"/opt/runtime", "relative/dir", "/with space/x"} {
		env := &recordingEnv{MapEnv: MapEnv{RootVar: root, SDKRootVar: "/sdk", HomeVar: "/home/u"}}
		fs := newFakeFS().dir(root).file(filepath.Join(root, "libcoreclr.so"))
		plan, err := Resolve(env, fs, linux)
		if err != nil {
			t.Fatalf("%s: %v", root, err)
		}
		if plan.Root != root || plan.Source != SourceRootOverride || plan.SDKRoot != "" {
			t.Fatalf("unexpected plan: %+v", plan)
		}
		for _, k := range env.read {
			if k != RootVar {
				t.Fatalf("consulted %s despite root override", k)
			}
		}
		for _, p := range fs.probed {
			if p == "/usr/share/dotnet" || strings.HasPrefix(p, "/sdk") || strings.HasPrefix(p, "/home/u") {
				t.Fatalf("probed %s despite root override", p)
			}
		}
	}
}

func TestResolve_SDKOverrideBuildsExactFrameworkPath(t *testing.T) {
	for _, sdk := range []string{"/sdk", "/a/b/c", "rel"} {
		want := sdk + "/shared/Microsoft.NETCore.App/1.0.0"
		fs := newFakeFS().dir("/usr/share/dotnet").dir(want).file(want + "/libcoreclr.so")
		plan, err := Resolve(MapEnv{SDKRootVar: sdk}, fs, linux)
		if err != nil {
			t.Fatalf("%s: %v", sdk, err)
		}
		if plan.Root != filepath.Clean(want) || plan.Source != SourceSDKOverride || plan.SDKRoot != sdk {
			t.Fatalf("unexpected plan: %+v", plan)
		}
	}
}

func TestResolve_EmptyOverridesIgnored(t *testing.T) {
	fs := newFakeFS().dir("/usr/share/dotnet").dir(fw("/usr/share/dotnet")).file(filepath.Join(fw("/usr/share/dotnet"), "libcoreclr.so"))
	plan, err := Resolve(MapEnv{RootVar: "", SDKRootVar: ""}, fs, linux)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Source != SourceGlobalSDK {
		t.Fatalf("expected global sdk, got %v", plan.Source)
	}
}

func TestResolve_GlobalWinsOverUser(t *testing.T) {
	g, u := "/usr/share/dotnet", "/home/u/.dotnet"
	fs := newFakeFS().dir(g).dir(u).
		dir(fw(g)).file(filepath.Join(fw(g), "libcoreclr.so")).
		dir(fw(u)).file(filepath.Join(fw(u), "libcoreclr.so"))
	plan, err := Resolve(MapEnv{HomeVar: "/home/u"}, fs, linux)
	if err != nil {
		t.Fatal(err)
	}
	if plan.SDKRoot != g || plan.Source != SourceGlobalSDK {
		t.Fatalf("global must take precedence, got %+v", plan)
	}
}

func TestResolve_UserSDK(t *testing.T) {
	u := "/home/u/.dotnet"
	fs := newFakeFS().dir(u).dir(fw(u)).file(filepath.Join(fw(u), "libcoreclr.so"))
	plan, err := Resolve(MapEnv{HomeVar: "/home/u"}, fs, linux)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Root != fw(u) || plan.Source != SourceUserSDK {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if got := plan.Directives(); got[0] != "-L"+fw(u) || got[1] != "-lcoreclr" {
		t.Fatalf("directives: %v", got)
	}
}

func TestResolve_NoHomeIsSdkNotFound(t *testing.T) {
	_, err := Resolve(MapEnv{HomeVar: ""}, newFakeFS(), linux)
	if !IsSdkNotFound(err) {
		t.Fatalf("expected SdkNotFound, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"/usr/share/dotnet", RootVar, SDKRootVar} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestResolve_WhitespaceHomeIsUsedAsIs(t *testing.T) {
	_, err := Resolve(MapEnv{HomeVar: " "}, newFakeFS(), linux)
	var le *Error
	if !errors.As(err, &le) || le.Kind != SdkNotFound {
		t.Fatalf("expected SdkNotFound, got %v", err)
	}
	if len(le.Tried) != 2 || le.Tried[1] != filepath.Join(" ", ".dotnet") {
		t.Fatalf("a non-empty HOME must be probed, tried: %q", le.Tried)
	}
}

func TestResolve_RootNotFoundNamesVariables(t *testing.T) {
	cases := []struct {
		name string
		env  MapEnv
		fs   *fakeFS
		vars []string
	}{
		{"root override", MapEnv{RootVar: "/opt/runtime"}, newFakeFS().dir("/opt/runtime"), []string{RootVar}},
		{"sdk override", MapEnv{SDKRootVar: "/sdk"}, newFakeFS(), []string{RootVar, SDKRootVar}},
		{"global sdk", MapEnv{}, newFakeFS().dir("/usr/share/dotnet").dir(fw("/usr/share/dotnet")), []string{RootVar, SDKRootVar}},
		{"user sdk", MapEnv{HomeVar: "/home/u"}, newFakeFS().dir("/home/u/.dotnet"), []string{RootVar, SDKRootVar, HomeVar}},
	}
	for _, c := range cases {
		_, err := Resolve(c.env, c.fs, linux)
		var le *Error
		if !errors.As(err, &le) || le.Kind != RootNotFound {
			t.Fatalf("%s: expected RootNotFound, got %v", c.name, err)
		}
		if strings.Join(le.Vars, ",") != strings.Join(c.vars, ",") {
			t.Fatalf("%s: vars %v want %v", c.name, le.Vars, c.vars)
		}
		for _, v := range c.vars {
			if !strings.Contains(err.Error(), v) {
				t.Fatalf("%s: message %q missing %s", c.name, err, v)
			}
		}
	}
}

func TestResolve_NeitherSDKDirIsSdkNotFound(t *testing.T) {
	// a file where the user SDK dir should be does not count
	fs := newFakeFS().file("/home/u/.dotnet")
	_, err := Resolve(MapEnv{HomeVar: "/home/u"}, fs, linux)
	if !IsSdkNotFound(err) {
		t.Fatalf("expected SdkNotFound, got %v", err)
	}
	var le *Error
	if !errors.As(err, &le) {
		t.Fatal("expected *Error")
	}
	if len(le.Tried) != 2 || le.Tried[0] != "/usr/share/dotnet" || le.Tried[1] != "/home/u/.dotnet" {
		t.Fatalf("tried: %v", le.Tried)
	}
	if !strings.Contains(err.Error(), "/home/u/.dotnet") {
		t.Fatalf("message missing user path: %v", err)
	}
}

func TestResolve_MissingFrameworkIsRootNotFound(t *testing.T) {
	fs := newFakeFS().dir("/usr/share/dotnet")
	_, err := Resolve(MapEnv{}, fs, linux)
	if !IsRootNotFound(err) {
		t.Fatalf("expected RootNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), fw("/usr/share/dotnet")) {
		t.Fatalf("message should name framework path: %v", err)
	}
}

func TestResolve_WrongLibraryNameIsRootNotFound(t *testing.T) {
	root := "/opt/runtime"
	fs := newFakeFS().dir(root).file(root + "/libcoreclr.dylib").file(root + "/libcoreclr.so.1")
	_, err := Resolve(MapEnv{RootVar: root}, fs, linux)
	if !IsRootNotFound(err) {
		t.Fatalf("expected RootNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), root) || !strings.Contains(err.Error(), "libcoreclr.so") {
		t.Fatalf("message should name root and file: %v", err)
	}
}

func TestResolve_RootOverrideMissingDir(t *testing.T) {
	_, err := Resolve(MapEnv{RootVar: "/nope"}, newFakeFS(), linux)
	if !IsRootNotFound(err) || IsSdkNotFound(err) {
		t.Fatalf("expected RootNotFound, got %v", err)
	}
}

func TestResolve_NonUnixOnlyOverrides(t *testing.T) {
	win := PlatformFor("windows")
	_, err := Resolve(MapEnv{HomeVar: `C:\Users\u`}, newFakeFS(), win)
	if !IsSdkNotFound(err) || !strings.Contains(err.Error(), "windows") {
		t.Fatalf("expected SdkNotFound for windows, got %v", err)
	}
	fs := newFakeFS().dir("/clr").file(filepath.Join("/clr", "coreclr.dll"))
	if _, err := Resolve(MapEnv{RootVar: "/clr"}, fs, win); err != nil {
		t.Fatalf("root override should work on windows: %v", err)
	}
}

func TestPlatformFor(t *testing.T) {
	cases := map[string]string{
		"darwin":  "libcoreclr.dylib",
		"ios":     "libcoreclr.dylib",
		"linux":   "libcoreclr.so",
		"freebsd": "libcoreclr.so",
		"windows": "coreclr.dll",
	}
	for goos, want := range cases {
		p := PlatformFor(goos)
		if p.LibraryFile != want {
			t.Fatalf("%s: got %s want %s", goos, p.LibraryFile, want)
		}
		if (goos == "windows") == p.Discovery() {
			t.Fatalf("%s: discovery=%v", goos, p.Discovery())
		}
	}
}

func TestLayeredEnv(t *testing.T) {
	e := LayeredEnv{MapEnv{"A": ""}, nil, MapEnv{"A": "cfg", "B": "b"}}
	if e.Getenv("A") != "cfg" || e.Getenv("B") != "b" || e.Getenv("C") != "" {
		t.Fatalf("layered lookup wrong")
	}
}

// Real filesystem scenarios.

func writeLib(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, HostPlatform().LibraryFile), []byte("elf"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocate_RootOverrideScenario(t *testing.T) {
	root := filepath.Join(t.TempDir(), "opt", "runtime")
	writeLib(t, root)
	l := &Locator{Env: MapEnv{RootVar: root}, Probe: OSProber{}, Platform: HostPlatform(), Log: zerolog.Nop()}
	plan, err := l.Locate()
	if err != nil {
		t.Fatal(err)
	}
	d := plan.Directives()
	if d[0] != "-L"+root || d[1] != "-l"+LinkName {
		t.Fatalf("directives: %v", d)
	}
}

func TestLocate_UserSDKScenario(t *testing.T) {
	plat := HostPlatform()
	if !plat.Discovery() {
		t.Skip("no default discovery on this OS")
	}
	home := t.TempDir()
	root := fw(filepath.Join(home, ".dotnet"))
	writeLib(t, root)
	// the global path is replaced with one that cannot exist
	plat.GlobalSDKPath = filepath.Join(home, "absent")
	l := &Locator{Env: MapEnv{HomeVar: home}, Platform: plat, Log: zerolog.Nop()}
	plan, err := l.Locate()
	if err != nil {
		t.Fatal(err)
	}
	if plan.Root != root || plan.Source != SourceUserSDK {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestLocate_DirectoryNamedLikeLibrary(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, HostPlatform().LibraryFile), 0o755); err != nil {
		t.Fatal(err)
	}
	l := &Locator{Env: MapEnv{RootVar: root}, Log: zerolog.Nop()}
	if _, err := l.Locate(); !IsRootNotFound(err) {
		t.Fatalf("expected RootNotFound, got %v", err)
	}
}
