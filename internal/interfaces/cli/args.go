package cli

import (
	"fmt"
	"strings"

	"genv.tools/cli/internal/core/mutate"
)

// ParseSetArgs converts -w arguments into an ordered Set batch. Every
// argument must be KEY=VALUE; the key may not be empty.
func ParseSetArgs(args []string) ([]mutate.Op, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("-w requires at least one KEY=VALUE argument")
	}

	ops := make([]mutate.Op, 0, len(args))
	for _, arg := range args {
		eq := strings.Index(arg, "=")
		if eq < 0 {
			return nil, fmt.Errorf("argument %q is missing =<value>", arg)
		}
		key := arg[:eq]
		if key == "" {
			return nil, fmt.Errorf("argument %q is missing a key", arg)
		}
		ops = append(ops, mutate.Set(key, arg[eq+1:]))
	}
	return ops, nil
}

// ParseUnsetArgs converts -u arguments into an ordered Unset batch.
func ParseUnsetArgs(args []string) ([]mutate.Op, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("-u requires at least one KEY argument")
	}

	ops := make([]mutate.Op, 0, len(args))
	for _, arg := range args {
		if strings.Contains(arg, "=") {
			return nil, fmt.Errorf("-u takes key names, not assignments: %q", arg)
		}
		ops = append(ops, mutate.Unset(arg))
	}
	return ops, nil
}
