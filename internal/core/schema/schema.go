package schema

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Kind describes how a key's value is typed and validated.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindPath
	KindEnum
)

// String returns the kind name used in reports.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindPath:
		return "path"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// Key is an immutable schema entry for a recognized configuration key.
type Key struct {
	name     string
	kind     Kind
	def      string
	enum     []string
	computed bool
}

// NewKey creates a Key with validation.
func NewKey(name string, kind Kind, def string, opts ...KeyOption) (Key, error) {
	if name == "" {
		return Key{}, fmt.Errorf("key name cannot be empty")
	}
	if name != strings.ToUpper(name) {
		return Key{}, fmt.Errorf("key name must be uppercase: %s", name)
	}
	k := Key{name: name, kind: kind, def: def}
	for _, opt := range opts {
		opt(&k)
	}
	if kind == KindEnum && len(k.enum) == 0 {
		return Key{}, fmt.Errorf("enum key %s requires allowed values", name)
	}
	if err := k.Validate(def); err != nil {
		return Key{}, fmt.Errorf("default for %s fails its own validator: %w", name, err)
	}
	return k, nil
}

// KeyOption customizes a Key at construction time.
type KeyOption func(*Key)

// WithEnum sets the allowed values for an enum key.
func WithEnum(values ...string) KeyOption {
	return func(k *Key) { k.enum = values }
}

// Computed marks a key as toolchain-managed: readable, never writable.
func Computed() KeyOption {
	return func(k *Key) { k.computed = true }
}

// Name returns the key identifier.
func (k Key) Name() string { return k.name }

// Kind returns the declared value type.
func (k Key) Kind() Kind { return k.kind }

// Default returns the compiled-in default value.
func (k Key) Default() string { return k.def }

// Enum returns the allowed values for an enum key, nil otherwise.
func (k Key) Enum() []string {
	if len(k.enum) == 0 {
		return nil
	}
	out := make([]string, len(k.enum))
	copy(out, k.enum)
	return out
}

// IsComputed reports whether the key is toolchain-managed.
func (k Key) IsComputed() bool { return k.computed }

// Validate checks a candidate value against the key's kind. The empty
// string is always accepted: it means "not set" in every layer.
func (k Key) Validate(value string) error {
	if value == "" {
		return nil
	}
	switch k.kind {
	case KindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%q is not a boolean value", value)
		}
	case KindPath:
		if !filepath.IsAbs(value) {
			return fmt.Errorf("%q is not an absolute path", value)
		}
	case KindEnum:
		for _, allowed := range k.enum {
			if value == allowed {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", value, strings.Join(k.enum, ", "))
	}
	return nil
}

// Registry is the read-only table of recognized keys.
type Registry struct {
	keys map[string]Key
}

// NewRegistry creates a registry from the given keys.
func NewRegistry(keys ...Key) *Registry {
	m := make(map[string]Key, len(keys))
	for _, k := range keys {
		m[k.name] = k
	}
	return &Registry{keys: m}
}

// Lookup returns the key by name.
func (r *Registry) Lookup(name string) (Key, bool) {
	k, ok := r.keys[name]
	return k, ok
}

// All returns every key sorted lexicographically by name.
func (r *Registry) All() []Key {
	out := make([]Key, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of registered keys.
func (r *Registry) Len() int { return len(r.keys) }

// Known GOOS/GOARCH values accepted by the enum validators.
var (
	knownOS = []string{
		"aix", "android", "darwin", "dragonfly", "freebsd", "illumos", "ios",
		"js", "linux", "netbsd", "openbsd", "plan9", "solaris", "wasip1",
		"windows",
	}
	knownArch = []string{
		"386", "amd64", "arm", "arm64", "loong64", "mips", "mips64",
		"mips64le", "mipsle", "ppc64", "ppc64le", "riscv64", "s390x", "wasm",
	}
)

// DefaultPaths supplies the environment-dependent defaults for the
// built-in registry. Resolved once at process start.
type DefaultPaths struct {
	Home     string
	CacheDir string
	GoRoot   string
}

// Builtin constructs the registry of Go toolchain keys. Defaults that
// depend on the machine (GOROOT, GOPATH, GOCACHE, GOOS, GOARCH) come from
// paths and the running binary.
func Builtin(paths DefaultPaths) *Registry {
	mk := func(name string, kind Kind, def string, opts ...KeyOption) Key {
		k, err := NewKey(name, kind, def, opts...)
		if err != nil {
			panic(fmt.Sprintf("builtin schema: %v", err))
		}
		return k
	}

	gopath := ""
	if paths.Home != "" {
		gopath = filepath.Join(paths.Home, "go")
	}
	gocache := ""
	if paths.CacheDir != "" {
		gocache = filepath.Join(paths.CacheDir, "go-build")
	}

	return NewRegistry(
		mk("GO111MODULE", KindEnum, "on", WithEnum("on", "off", "auto")),
		mk("GOARCH", KindEnum, runtime.GOARCH, WithEnum(knownArch...)),
		mk("GOBIN", KindPath, ""),
		mk("GOCACHE", KindPath, gocache),
		mk("GOFLAGS", KindString, ""),
		mk("GOINSECURE", KindString, ""),
		mk("GOMOD", KindPath, "", Computed()),
		mk("GONOSUMDB", KindString, ""),
		mk("GOOS", KindEnum, runtime.GOOS, WithEnum(knownOS...)),
		mk("GOPATH", KindPath, gopath),
		mk("GOPRIVATE", KindString, ""),
		mk("GOPROXY", KindString, "https://proxy.golang.org,direct"),
		mk("GOROOT", KindPath, paths.GoRoot),
		mk("GOSUMDB", KindString, "sum.golang.org"),
		mk("GOTMPDIR", KindPath, ""),
		mk("GOWORK", KindPath, "", Computed()),
		mk("CGO_ENABLED", KindEnum, "1", WithEnum("0", "1")),
	)
}
