package codec

import (
	"sort"
	"sync"

	"github.com/c360/streamkit/errors"
)

// codecRegistry holds named decode transforms so pipelines can be assembled
// from configuration. Codecs register themselves in init(), mirroring how
// database/sql drivers self-register.
var codecRegistry = struct {
	mu     sync.RWMutex
	codecs map[string]DecodeFunc
}{codecs: make(map[string]DecodeFunc)}

// RegisterCodec makes a decode transform available under the given name.
// Registering a duplicate name or a nil transform fails.
func RegisterCodec(name string, fn DecodeFunc) error {
	if name == "" || fn == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "codec", "RegisterCodec",
			"name and transform required")
	}

	codecRegistry.mu.Lock()
	defer codecRegistry.mu.Unlock()

	if _, exists := codecRegistry.codecs[name]; exists {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "codec", "RegisterCodec",
			"codec already registered: "+name)
	}
	codecRegistry.codecs[name] = fn
	return nil
}

// MustRegisterCodec is RegisterCodec that panics on failure, for use from
// package init functions.
func MustRegisterCodec(name string, fn DecodeFunc) {
	if err := RegisterCodec(name, fn); err != nil {
		panic(err)
	}
}

// LookupCodec returns the transform registered under name.
func LookupCodec(name string) (DecodeFunc, bool) {
	codecRegistry.mu.RLock()
	defer codecRegistry.mu.RUnlock()
	fn, ok := codecRegistry.codecs[name]
	return fn, ok
}

// CodecNames returns the sorted names of all registered codecs.
func CodecNames() []string {
	codecRegistry.mu.RLock()
	defer codecRegistry.mu.RUnlock()
	names := make([]string, 0, len(codecRegistry.codecs))
	for name := range codecRegistry.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
