// Package mutate applies validated Set/Unset batches to a store document.
// A batch is all-or-nothing: the first invalid operation rejects the whole
// batch and the input document is never touched.
package mutate

import (
	"fmt"

	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/envfile"
	"genv.tools/cli/internal/core/schema"
)

// OpKind distinguishes the two mutation operations.
type OpKind int

const (
	OpSet OpKind = iota
	OpUnset
)

// Op is a single mutation. Value is ignored for OpUnset.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
}

// Set builds a Set operation.
func Set(key, value string) Op {
	return Op{Kind: OpSet, Key: key, Value: value}
}

// Unset builds an Unset operation.
func Unset(key string) Op {
	return Op{Kind: OpUnset, Key: key}
}

// String renders the operation for diagnostics.
func (o Op) String() string {
	if o.Kind == OpUnset {
		return fmt.Sprintf("unset %s", o.Key)
	}
	return fmt.Sprintf("set %s=%s", o.Key, o.Value)
}

// Options tunes batch validation.
type Options struct {
	// AllowUnknown stores keys missing from the registry verbatim, without
	// validation, for forward compatibility.
	AllowUnknown bool
}

// Apply validates the whole batch against the registry, then applies it to
// a copy of doc. On any validation failure the returned document is doc
// itself, unchanged.
func Apply(doc *envfile.Document, registry *schema.Registry, ops []Op, opts Options) (*envfile.Document, error) {
	for _, op := range ops {
		if err := validate(registry, op, opts); err != nil {
			return doc, err
		}
	}

	next := doc.Clone()
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			next.Set(op.Key, op.Value)
		case OpUnset:
			next.Unset(op.Key)
		}
	}
	return next, nil
}

func validate(registry *schema.Registry, op Op, opts Options) error {
	key, known := registry.Lookup(op.Key)
	if !known {
		if opts.AllowUnknown {
			return nil
		}
		return enverr.UnknownKey(op.Key)
	}
	if key.IsComputed() {
		return enverr.InvalidValue(op.Key, fmt.Errorf("key is managed by the toolchain and cannot be modified"))
	}
	if op.Kind == OpSet {
		if err := key.Validate(op.Value); err != nil {
			return enverr.InvalidValue(op.Key, err)
		}
	}
	return nil
}
