package playback

import (
	"reflect"
	"sync/atomic"
)

// Registry holds the engine that code without its own reference should
// use. The zero value is ready and yields Null until an engine is
// registered.
type Registry struct {
	current atomic.Pointer[binding]
}

type binding struct {
	engine Engine
}

// Register makes e the active engine. A nil engine, including a typed nil
// pointer such as (*Queued)(nil), resets the registry to Null; the
// registry is never empty. The previous engine is not closed.
func (r *Registry) Register(e Engine) {
	if isNil(e) {
		e = Null{}
	}
	r.current.Store(&binding{engine: e})
}

// Current returns the active engine. Safe for concurrent use.
func (r *Registry) Current() Engine {
	if b := r.current.Load(); b != nil {
		return b.engine
	}
	return Null{}
}

func isNil(e Engine) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// defaultRegistry is the process-wide binding. Shut down by resetting it
// with Register(nil) before closing the engine it held.
var defaultRegistry Registry

// Register sets the process-wide active engine.
func Register(e Engine) {
	defaultRegistry.Register(e)
}

// Current returns the process-wide active engine.
func Current() Engine {
	return defaultRegistry.Current()
}
