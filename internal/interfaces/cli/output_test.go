package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"genv.tools/cli/internal/core/resolve"
	"genv.tools/cli/internal/core/schema"
)

func testSnapshot(t *testing.T) []resolve.Resolution {
	t.Helper()

	goarch, err := schema.NewKey("GOARCH", schema.KindEnum, "amd64", schema.WithEnum("amd64", "arm64"))
	require.NoError(t, err)
	goflags, err := schema.NewKey("GOFLAGS", schema.KindString, "")
	require.NoError(t, err)

	return []resolve.Resolution{
		{Key: goarch, Value: "arm64", Origin: resolve.LayerPersisted},
		{Key: goflags, Value: "-mod=vendor -trimpath", Origin: resolve.LayerDefault},
	}
}

// TestWriteSnapshot_TextFormat tests the default KEY='value' rendering
func TestWriteSnapshot_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSnapshot(&buf, testSnapshot(t), FormatText))
	assert.Equal(t, "GOARCH='arm64'\nGOFLAGS='-mod=vendor -trimpath'\n", buf.String())
}

// TestWriteSnapshot_JSONFormat tests machine-readable output
func TestWriteSnapshot_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSnapshot(&buf, testSnapshot(t), FormatJSON))

	var values map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &values))
	assert.Equal(t, map[string]string{
		"GOARCH":  "arm64",
		"GOFLAGS": "-mod=vendor -trimpath",
	}, values)
}

// TestWriteSnapshot_YAMLFormat tests machine-readable output
func TestWriteSnapshot_YAMLFormat(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSnapshot(&buf, testSnapshot(t), FormatYAML))

	var values map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &values))
	assert.Equal(t, map[string]string{
		"GOARCH":  "arm64",
		"GOFLAGS": "-mod=vendor -trimpath",
	}, values)
}

// TestWriteSnapshot_EmptySnapshot tests degenerate input across formats
func TestWriteSnapshot_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, nil, FormatText))
	assert.Equal(t, "", buf.String())
}
