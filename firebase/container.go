package firebase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// imageRepo is the repository of the synthesized image; each Start builds
	// a uniquely tagged image under it.
	imageRepo = "localhost/testcontainers/firebase"

	// readyLogMessage signals that the suite is up: the hub starts last.
	readyLogMessage = "Emulator Hub running at"

	startupTimeout = 2 * time.Minute

	// stopTimeout is the grace period given to the emulators on stop. The
	// export-on-exit write happens inside this window.
	stopTimeout = time.Minute
)

// Container wraps a running Firebase emulator suite. It re-reads the service
// exposure map of the configuration it was started from to answer port and
// endpoint lookups.
//
// A Container is owned by a single goroutine for its lifetime; Start, Stop
// and Terminate must not overlap.
type Container struct {
	inner    testcontainers.Container
	services map[Emulator]ExposedPort
	logger   zerolog.Logger
}

// Start synthesizes the emulator image from cfg, builds it and runs it,
// blocking until the emulator hub reports ready. Fixed-port services are
// published on their chosen host port, dynamic services on a runtime
// allocated one. Errors from the container runtime are passed through
// unmodified.
func Start(ctx context.Context, cfg EmulatorConfig) (*Container, error) {
	logger := log.Logger

	spec, err := SynthesizeImage(cfg, logger)
	if err != nil {
		return nil, err
	}

	contextDir, err := stageBuildContext(spec)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(contextDir); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove emulator build context")
		}
	}()

	var exposedPorts []string
	for emulator, exposed := range cfg.Firebase.Services {
		if exposed.IsFixed() {
			// Host and container port are identical for fixed exposures.
			exposedPorts = append(exposedPorts, fmt.Sprintf("%d:%d/tcp", exposed.Port(), exposed.Port()))
		} else {
			exposedPorts = append(exposedPorts, fmt.Sprintf("%d/tcp", emulator.InternalPort()))
		}
	}

	var binds []string
	if cfg.EmulatorData != "" {
		binds = append(binds, cfg.EmulatorData+":"+EmulatorDataPath)
	}
	if cfg.Firebase.Hosting.ContentDir != "" {
		binds = append(binds, cfg.Firebase.Hosting.ContentDir+":"+HostingPath+":ro")
	}

	req := testcontainers.ContainerRequest{
		FromDockerfile: testcontainers.FromDockerfile{
			Context:    contextDir,
			Dockerfile: "Dockerfile",
			Repo:       imageRepo,
			Tag:        uuid.NewString(),
		},
		ExposedPorts: exposedPorts,
		WaitingFor:   wait.ForLog(readyLogMessage).WithStartupTimeout(startupTimeout),
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, binds...)
		},
	}

	inner, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	return newContainer(inner, cfg.Firebase.Services, logger), nil
}

func newContainer(inner testcontainers.Container, services map[Emulator]ExposedPort, logger zerolog.Logger) *Container {
	return &Container{
		inner:    inner,
		services: services,
		logger:   logger,
	}
}

// stageBuildContext writes the Dockerfile and every context file of the spec
// into a fresh temp directory suitable as a build context.
func stageBuildContext(spec *ImageSpec) (string, error) {
	dir, err := os.MkdirTemp("", "firebase-emulator-build")
	if err != nil {
		return "", fmt.Errorf("%w: creating build context: %s", ErrIO, err)
	}

	fail := func(err error) (string, error) {
		_ = os.RemoveAll(dir)
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(spec.Dockerfile()), 0o644); err != nil {
		return fail(fmt.Errorf("%w: writing Dockerfile: %s", ErrIO, err))
	}

	for _, file := range spec.ContextFiles() {
		target := filepath.Join(dir, file.Name)
		switch {
		case file.Content != nil:
			if err := os.WriteFile(target, file.Content, 0o644); err != nil {
				return fail(fmt.Errorf("%w: writing %s: %s", ErrIO, file.Name, err))
			}
		case file.Dir:
			if err := os.CopyFS(target, os.DirFS(file.HostPath)); err != nil {
				return fail(fmt.Errorf("%w: copying %s from %s: %s", ErrIO, file.Name, file.HostPath, err))
			}
		default:
			content, err := os.ReadFile(file.HostPath)
			if err != nil {
				return fail(fmt.Errorf("%w: reading %s: %s", ErrIO, file.HostPath, err))
			}
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return fail(fmt.Errorf("%w: writing %s: %s", ErrIO, file.Name, err))
			}
		}
	}

	return dir, nil
}

// Host returns the address the emulator ports are reachable on.
func (c *Container) Host(ctx context.Context) (string, error) {
	return c.inner.Host(ctx)
}

// EmulatorPort returns the host port of a registered emulator. Fixed ports
// are answered directly from the configuration; dynamic ports query the
// running container's mapping of the service's internal port.
func (c *Container) EmulatorPort(ctx context.Context, emulator Emulator) (int, error) {
	exposed, ok := c.services[emulator]
	if !ok {
		return 0, fmt.Errorf("%w: emulator %s is not registered", ErrConfiguration, emulator)
	}
	if exposed.IsFixed() {
		return exposed.Port(), nil
	}

	mapped, err := c.inner.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", emulator.InternalPort())))
	if err != nil {
		return 0, err
	}
	return mapped.Int(), nil
}

// EmulatorEndpoint returns "host:port" for a registered emulator.
func (c *Container) EmulatorEndpoint(ctx context.Context, emulator Emulator) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.EmulatorPort(ctx, emulator)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", host, port), nil
}

// EmulatorPorts returns the host port of every registered emulator.
func (c *Container) EmulatorPorts(ctx context.Context) (map[Emulator]int, error) {
	ports := make(map[Emulator]int, len(c.services))
	for emulator := range c.services {
		port, err := c.EmulatorPort(ctx, emulator)
		if err != nil {
			return nil, err
		}
		ports[emulator] = port
	}
	return ports, nil
}

// EmulatorEndpoints returns "host:port" for every registered emulator.
func (c *Container) EmulatorEndpoints(ctx context.Context) (map[Emulator]string, error) {
	endpoints := make(map[Emulator]string, len(c.services))
	for emulator := range c.services {
		endpoint, err := c.EmulatorEndpoint(ctx, emulator)
		if err != nil {
			return nil, err
		}
		endpoints[emulator] = endpoint
	}
	return endpoints, nil
}

// Stop stops the suite gracefully, requesting a termination signal with a
// grace period instead of the runtime's default kill. The emulators write
// their export-on-exit data during this window; a kill would truncate or
// skip it.
func (c *Container) Stop(ctx context.Context) error {
	timeout := stopTimeout
	return c.inner.Stop(ctx, &timeout)
}

// Terminate stops the suite gracefully, then removes the container. A failed
// graceful stop is logged and does not prevent removal.
func (c *Container) Terminate(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Graceful stop before terminate failed")
	}
	return c.inner.Terminate(ctx)
}

// Inner exposes the underlying testcontainers container for operations the
// façade does not cover, such as exec or log access.
func (c *Container) Inner() testcontainers.Container {
	return c.inner
}
