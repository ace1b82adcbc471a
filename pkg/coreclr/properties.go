package coreclr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known runtime property names.
const (
	PropTrustedPlatformAssemblies = "TRUSTED_PLATFORM_ASSEMBLIES"
	PropAppPaths                  = "APP_PATHS"
	PropNativeDLLSearchDirs       = "NATIVE_DLL_SEARCH_DIRECTORIES"
)

// TrustedPlatformAssemblies lists every *.dll in dirs, joined with the OS
// path list separator. When a file name appears in several dirs the first
// one wins.
func TrustedPlatformAssemblies(dirs ...string) (string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("trusted platform assemblies: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".dll") {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return strings.Join(paths, string(os.PathListSeparator)), nil
}

// DefaultProperties returns the minimal property set to run an app from
// appDir on the framework in frameworkDir.
func DefaultProperties(frameworkDir, appDir string) ([]Property, error) {
	tpa, err := TrustedPlatformAssemblies(frameworkDir)
	if err != nil {
		return nil, err
	}
	sep := string(os.PathListSeparator)
	return []Property{
		{Name: PropTrustedPlatformAssemblies, Value: tpa},
		{Name: PropAppPaths, Value: appDir},
		{Name: PropNativeDLLSearchDirs, Value: appDir + sep + frameworkDir},
	}, nil
}

// MergeProperties overlays extra onto base by name, keeping base order and
// appending new names in the order given.
func MergeProperties(base []Property, extra ...Property) []Property {
	out := append([]Property(nil), base...)
	idx := make(map[string]int, len(out))
	for i, p := range out {
		idx[p.Name] = i
	}
	for _, p := range extra {
		if i, ok := idx[p.Name]; ok {
			out[i].Value = p.Value
			continue
		}
		idx[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}
