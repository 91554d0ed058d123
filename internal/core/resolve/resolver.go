// Package resolve computes effective configuration values across the
// Override (process environment), Persisted (store file), and Default
// (schema) layers.
package resolve

import (
	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/envfile"
	"genv.tools/cli/internal/core/schema"
)

// Layer identifies the origin of a resolved value. Lower is higher
// precedence.
type Layer int

const (
	LayerOverride Layer = iota
	LayerPersisted
	LayerDefault
)

// String returns the layer name used in explain output.
func (l Layer) String() string {
	switch l {
	case LayerOverride:
		return "override"
	case LayerPersisted:
		return "persisted"
	default:
		return "default"
	}
}

// Resolution is one key's effective value with its provenance.
type Resolution struct {
	Key    schema.Key
	Value  string
	Origin Layer
}

// Resolver resolves keys against a fixed environment snapshot and a loaded
// document. The environment is captured once at construction so precedence
// decisions do not depend on call order.
type Resolver struct {
	registry *Registry
	env      map[string]string
	doc      *envfile.Document
}

// Registry is the subset of the schema registry the resolver needs.
type Registry = schema.Registry

// New creates a resolver. environ takes os.Environ()-style "KEY=value"
// entries; doc may be nil when no store file exists.
func New(registry *Registry, environ []string, doc *envfile.Document) *Resolver {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	if doc == nil {
		doc = envfile.New()
	}
	return &Resolver{registry: registry, env: env, doc: doc}
}

// Resolve returns the effective value of a known key. An override that is
// present but empty counts as unset and falls through, mirroring shell
// semantics where unset and empty are conflated. The winning value is
// checked against the key's validator.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	key, ok := r.registry.Lookup(name)
	if !ok {
		return Resolution{}, enverr.UnknownKey(name)
	}
	res := r.resolveKey(key)
	if err := key.Validate(res.Value); err != nil {
		return Resolution{}, enverr.InvalidValue(key.Name(), err)
	}
	return res, nil
}

func (r *Resolver) resolveKey(key schema.Key) Resolution {
	if v, ok := r.env[key.Name()]; ok && v != "" {
		return Resolution{Key: key, Value: v, Origin: LayerOverride}
	}
	if v, ok := r.doc.Get(key.Name()); ok {
		return Resolution{Key: key, Value: v, Origin: LayerPersisted}
	}
	return Resolution{Key: key, Value: key.Default(), Origin: LayerDefault}
}

// Snapshot resolves every registered key, sorted lexicographically by key
// name. Validation failures surface here rather than being coerced.
func (r *Resolver) Snapshot() ([]Resolution, error) {
	keys := r.registry.All()
	out := make([]Resolution, 0, len(keys))
	for _, key := range keys {
		res := r.resolveKey(key)
		if err := key.Validate(res.Value); err != nil {
			return nil, enverr.InvalidValue(key.Name(), err)
		}
		out = append(out, res)
	}
	return out, nil
}

// Inspect resolves every registered key without running validators, for
// health reporting that wants to show the bad values instead of stopping
// at the first one.
func (r *Resolver) Inspect() []Resolution {
	keys := r.registry.All()
	out := make([]Resolution, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.resolveKey(key))
	}
	return out
}
