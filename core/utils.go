package core

import (
	"reflect"

	"github.com/encodeous/dualsim/state"
)

// Get returns the module of type T registered on s.
func Get[T state.Module](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}
