package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/mutate"
	"genv.tools/cli/internal/core/resolve"
	"genv.tools/cli/internal/core/schema"
	"genv.tools/cli/internal/infrastructure/storage"
)

func testService(t *testing.T, storeContent string, environ []string) *EnvService {
	t.Helper()

	registry := schema.Builtin(schema.DefaultPaths{
		Home:     "/home/u",
		CacheDir: "/home/u/.cache",
		GoRoot:   "/usr/local/go",
	})
	path := filepath.Join(t.TempDir(), "env")
	if storeContent != "" {
		require.NoError(t, os.WriteFile(path, []byte(storeContent), 0o600))
	}
	return NewEnvService(registry, storage.NewStore(path), environ, zap.NewNop())
}

// TestEnvService_Get_ResolvesAcrossLayers tests the end-to-end read path
func TestEnvService_Get_ResolvesAcrossLayers(t *testing.T) {
	tests := []struct {
		name       string
		store      string
		environ    []string
		key        string
		wantValue  string
		wantOrigin resolve.Layer
	}{
		{
			name:       "PersistedValue_NoOverride",
			store:      "GOOS=linux\n",
			environ:    []string{"HOME=/home/u"},
			key:        "GOOS",
			wantValue:  "linux",
			wantOrigin: resolve.LayerPersisted,
		},
		{
			name:       "ProcessOverride_ShadowsPersisted",
			store:      "GOOS=linux\n",
			environ:    []string{"GOOS=darwin"},
			key:        "GOOS",
			wantValue:  "darwin",
			wantOrigin: resolve.LayerOverride,
		},
		{
			name:       "SchemaDefault_OnEmptyStore",
			store:      "",
			environ:    nil,
			key:        "GOPROXY",
			wantValue:  "https://proxy.golang.org,direct",
			wantOrigin: resolve.LayerDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := testService(t, tt.store, tt.environ)

			res, err := service.Get(context.Background(), tt.key)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValue, res.Value)
			assert.Equal(t, tt.wantOrigin, res.Origin)
		})
	}
}

// TestEnvService_Get_RejectsUnknownKey tests error kind propagation
func TestEnvService_Get_RejectsUnknownKey(t *testing.T) {
	service := testService(t, "", nil)

	_, err := service.Get(context.Background(), "GOFISH")
	require.Error(t, err)
	assert.Equal(t, enverr.KindUnknownKey, enverr.KindOf(err))
}

// TestEnvService_Write_AppendsToCommentedStore tests persisting into a
// file that only held passthrough lines
func TestEnvService_Write_AppendsToCommentedStore(t *testing.T) {
	service := testService(t, "# provisioned 2026-01-01\n", nil)

	err := service.Write(context.Background(), []mutate.Op{mutate.Set("GOARCH", "arm64")}, mutate.Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(service.StorePath())
	require.NoError(t, err)
	assert.Equal(t, "# provisioned 2026-01-01\nGOARCH=arm64\n", string(data))

	res, err := service.Get(context.Background(), "GOARCH")
	require.NoError(t, err)
	assert.Equal(t, "arm64", res.Value)
	assert.Equal(t, resolve.LayerPersisted, res.Origin)
}

// TestEnvService_Write_MultilineValueStaysLoadable tests that committing a
// value with embedded line terminators never wedges the store
func TestEnvService_Write_MultilineValueStaysLoadable(t *testing.T) {
	service := testService(t, "", nil)

	err := service.Write(context.Background(), []mutate.Op{mutate.Set("GOFLAGS", "-ldflags=-s\n-trimpath")}, mutate.Options{})
	require.NoError(t, err)

	res, err := service.Get(context.Background(), "GOFLAGS")
	require.NoError(t, err, "a committed store must always load back")
	assert.Equal(t, "-ldflags=-s\n-trimpath", res.Value)

	snap, err := service.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, service.Registry().Len(), len(snap))
}

// TestEnvService_Write_BatchIsAtomic tests that a rejected batch leaves
// the store file byte-identical
func TestEnvService_Write_BatchIsAtomic(t *testing.T) {
	service := testService(t, "# header\nGOOS=linux\n", nil)

	err := service.Write(context.Background(), []mutate.Op{
		mutate.Set("GOOS", "darwin"),
		mutate.Set("GOARCH", "z80"),
	}, mutate.Options{})
	require.Error(t, err)
	assert.Equal(t, enverr.KindInvalidValue, enverr.KindOf(err))

	data, err := os.ReadFile(service.StorePath())
	require.NoError(t, err)
	assert.Equal(t, "# header\nGOOS=linux\n", string(data))
}

// TestEnvService_Write_UnsetRevealsLowerLayer tests that removing a
// persisted value exposes the schema default again
func TestEnvService_Write_UnsetRevealsLowerLayer(t *testing.T) {
	service := testService(t, "GOPROXY=off\n", nil)

	err := service.Write(context.Background(), []mutate.Op{mutate.Unset("GOPROXY")}, mutate.Options{})
	require.NoError(t, err)

	res, err := service.Get(context.Background(), "GOPROXY")
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.golang.org,direct", res.Value)
	assert.Equal(t, resolve.LayerDefault, res.Origin)
}

// TestEnvService_Snapshot_FailsOnInvalidPersistedValue tests strict
// snapshot semantics against a corrupted store
func TestEnvService_Snapshot_FailsOnInvalidPersistedValue(t *testing.T) {
	service := testService(t, "GOOS=templeos\n", nil)

	_, err := service.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, enverr.KindInvalidValue, enverr.KindOf(err))
}

// TestEnvService_Inspect_ReportsInvalidValues tests the lenient path used
// by diagnostics
func TestEnvService_Inspect_ReportsInvalidValues(t *testing.T) {
	service := testService(t, "GOOS=templeos\n", nil)

	rows, err := service.Inspect(context.Background())
	require.NoError(t, err)

	found := false
	for _, res := range rows {
		if res.Key.Name() == "GOOS" {
			found = true
			assert.Equal(t, "templeos", res.Value)
			assert.Error(t, res.Key.Validate(res.Value))
		}
	}
	assert.True(t, found, "inspection must include GOOS")
}

// TestEnvService_Snapshot_CoversEveryRegisteredKey tests report
// completeness
func TestEnvService_Snapshot_CoversEveryRegisteredKey(t *testing.T) {
	service := testService(t, "GOOS=linux\n", []string{"GOARCH=arm64"})

	snap, err := service.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, service.Registry().Len(), len(snap))
}
