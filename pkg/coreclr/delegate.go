//go:build darwin || linux

package coreclr

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"
)

// Bind points fptr, a pointer to a func variable, at the delegate so it can
// be called like any Go function. The managed method must match the func's
// C signature.
func (d Delegate) Bind(fptr any) (err error) {
	if d.IsZero() {
		return errors.New("coreclr: bind of empty delegate")
	}
	v := reflect.ValueOf(fptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("coreclr: bind target must be a pointer to a func, got %T", fptr)
	}
	// RegisterFunc panics on signatures it cannot marshal.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coreclr: bind: %v", r)
		}
	}()
	purego.RegisterFunc(fptr, d.p)
	return nil
}
