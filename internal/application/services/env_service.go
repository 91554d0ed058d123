// Package services hosts the application facade over the configuration
// engine: queries resolve against an unlocked read, writes run as
// all-or-nothing batches under the store's write lock.
package services

import (
	"context"

	"go.uber.org/zap"

	"genv.tools/cli/internal/core/envfile"
	"genv.tools/cli/internal/core/mutate"
	"genv.tools/cli/internal/core/resolve"
	"genv.tools/cli/internal/core/schema"
	"genv.tools/cli/internal/infrastructure/storage"
)

// EnvService is the query/report and mutation facade.
type EnvService struct {
	registry *schema.Registry
	store    *storage.Store
	environ  []string
	logger   *zap.Logger
}

// NewEnvService creates the facade. environ is the process environment
// snapshot (os.Environ()), captured once by the caller so every resolution
// in this invocation sees the same override layer.
func NewEnvService(registry *schema.Registry, store *storage.Store, environ []string, logger *zap.Logger) *EnvService {
	return &EnvService{
		registry: registry,
		store:    store,
		environ:  environ,
		logger:   logger,
	}
}

// Registry exposes the schema table for reporting commands.
func (s *EnvService) Registry() *schema.Registry { return s.registry }

// StorePath returns the persisted file location.
func (s *EnvService) StorePath() string { return s.store.Path() }

// Snapshot resolves every known key, sorted by key name.
func (s *EnvService) Snapshot(ctx context.Context) ([]resolve.Resolution, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := resolver.Snapshot()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot resolved", zap.Int("keys", len(snap)))
	return snap, nil
}

// Inspect resolves every known key without validation, so callers can
// report invalid values instead of failing on the first one.
func (s *EnvService) Inspect(ctx context.Context) ([]resolve.Resolution, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	return resolver.Inspect(), nil
}

// Get resolves a single key.
func (s *EnvService) Get(ctx context.Context, key string) (resolve.Resolution, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return resolve.Resolution{}, err
	}
	res, err := resolver.Resolve(key)
	if err != nil {
		return resolve.Resolution{}, err
	}
	s.logger.Debug("key resolved",
		zap.String("key", key),
		zap.String("origin", res.Origin.String()),
	)
	return res, nil
}

// Write applies a mutation batch and commits it to the store. The load,
// validation, and save all happen under the store's exclusive write lock;
// a rejected batch leaves the file byte-identical.
func (s *EnvService) Write(ctx context.Context, ops []mutate.Op, opts mutate.Options) error {
	err := s.store.Update(ctx, func(doc *envfile.Document) (*envfile.Document, error) {
		return mutate.Apply(doc, s.registry, ops, opts)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("batch committed",
		zap.Int("operations", len(ops)),
		zap.String("path", s.store.Path()),
	)
	return nil
}

// resolver builds a resolver over a fresh unlocked read of the store.
func (s *EnvService) resolver(ctx context.Context) (*resolve.Resolver, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return resolve.New(s.registry, s.environ, doc), nil
}
