package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"genv.tools/cli/internal/core/resolve"
)

// Snapshot output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteSnapshot renders a resolved snapshot. Text mode prints one
// KEY='value' line per key; json and yaml render a key→value mapping.
// All three are sorted by key, so successive runs diff cleanly.
func WriteSnapshot(w io.Writer, snapshot []resolve.Resolution, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		values := make(map[string]string, len(snapshot))
		for _, res := range snapshot {
			values[res.Key.Name()] = res.Value
		}
		if format == FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "\t")
			return enc.Encode(values)
		}
		return yaml.NewEncoder(w).Encode(values)

	default:
		for _, res := range snapshot {
			if _, err := fmt.Fprintf(w, "%s='%s'\n", res.Key.Name(), res.Value); err != nil {
				return err
			}
		}
		return nil
	}
}
