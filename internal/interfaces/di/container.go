package di

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"genv.tools/cli/internal/application/services"
	"genv.tools/cli/internal/core/schema"
	"genv.tools/cli/internal/infrastructure/storage"
	"genv.tools/cli/internal/interfaces/cli"
	"genv.tools/cli/internal/logging"
)

// Container holds all application dependencies
type Container struct {
	// Configuration engine
	Registry   *schema.Registry
	Store      *storage.Store
	EnvService *services.EnvService

	// CLI
	CLIContainer *cli.CLIContainer

	// Logger
	Logger *zap.Logger

	environ []string
}

// NewContainer creates and configures the dependency injection container
func NewContainer() (*Container, error) {
	container := &Container{}

	if err := container.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return container, nil
}

// initializeComponents initializes all components with proper dependencies
func (c *Container) initializeComponents() error {
	logger, err := logging.New(false)
	if err != nil {
		return err
	}
	c.Logger = logger

	// Machine-dependent schema defaults, resolved once at process start.
	home, _ := os.UserHomeDir()
	cacheDir, _ := os.UserCacheDir()
	c.Registry = schema.Builtin(schema.DefaultPaths{
		Home:     home,
		CacheDir: cacheDir,
		GoRoot:   runtime.GOROOT(),
	})

	path, err := storage.DefaultPath()
	if err != nil {
		return err
	}
	c.Store = storage.NewStore(path)

	// The override layer is captured once so every resolution in this
	// invocation sees the same environment.
	c.environ = os.Environ()

	c.EnvService = services.NewEnvService(c.Registry, c.Store, c.environ, c.Logger)

	c.CLIContainer = &cli.CLIContainer{
		EnvService:    c.EnvService,
		Logger:        c.Logger,
		MainContainer: c, // Reference to self for override methods
	}

	return nil
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// ApplyStorePathOverride points the engine at a different store file,
// rebuilding the service around the new store.
func (c *Container) ApplyStorePathOverride(path string) error {
	if path == "" {
		return fmt.Errorf("store path cannot be empty")
	}

	c.Store = storage.NewStore(path)
	c.EnvService = services.NewEnvService(c.Registry, c.Store, c.environ, c.Logger)
	c.CLIContainer.EnvService = c.EnvService

	c.Logger.Debug("store path override applied", zap.String("path", path))
	return nil
}

// ApplyVerbose rebuilds the logger at debug level.
func (c *Container) ApplyVerbose(verbose bool) error {
	logger, err := logging.New(verbose)
	if err != nil {
		return err
	}

	c.Logger = logger
	c.EnvService = services.NewEnvService(c.Registry, c.Store, c.environ, c.Logger)
	c.CLIContainer.Logger = c.Logger
	c.CLIContainer.EnvService = c.EnvService
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Logger != nil {
		// Sync failures on stderr are expected on some platforms.
		_ = c.Logger.Sync()
	}
	return nil
}
