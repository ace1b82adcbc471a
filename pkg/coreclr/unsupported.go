//go:build !darwin && !linux

package coreclr

// Open has no loader on this platform.
func Open(path string) (Library, error) { return nil, ErrUnsupportedPlatform }

// Bind has no foreign call support on this platform.
func (d Delegate) Bind(fptr any) error { return ErrUnsupportedPlatform }
