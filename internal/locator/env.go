package locator

import (
	"os"
	"path/filepath"

	"clrhost/internal/common/fsutil"
)

// Environment is a read-only view of environment variables.
type Environment interface {
	Getenv(key string) string
}

// OSEnv reads the process environment.
type OSEnv struct{}

func (OSEnv) Getenv(key string) string { return os.Getenv(key) }

// MapEnv is an immutable snapshot, mostly for tests and config overlays.
type MapEnv map[string]string

func (m MapEnv) Getenv(key string) string { return m[key] }

// LayeredEnv returns the first non-empty value across its layers.
type LayeredEnv []Environment

func (l LayeredEnv) Getenv(key string) string {
	for _, e := range l {
		if e == nil {
			continue
		}
		if v := e.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Prober answers filesystem questions needed by discovery.
type Prober interface {
	IsDir(path string) bool
	IsFile(path string) bool
}

// OSProber probes the real filesystem. Symlinks are followed.
type OSProber struct{}

func (OSProber) IsDir(path string) bool  { return fsutil.IsDir(path) }
func (OSProber) IsFile(path string) bool { return fsutil.IsFile(path) }

// userSDKPath derives <home>/<suffix>; ok is false when home is unset.
func userSDKPath(env Environment, p Platform) (string, bool) {
	if p.UserSDKSuffix == "" {
		return "", false
	}
	home := env.Getenv(HomeVar)
	if home == "" {
		return "", false
	}
	return filepath.Join(home, p.UserSDKSuffix), true
}
