package gdal

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"opengeo/internal/config"
	"opengeo/internal/docker"
	"opengeo/internal/logging"
)

// Options controls how Initialize sets up GDAL execution.
type Options struct {
	Mode    string // auto, local, docker
	Image   string
	WorkDir string
	TempDir string // base directory for scratch files
}

var (
	stateMu      sync.RWMutex
	dockerClient *docker.Client
	runMode      = config.ModeAuto
	scratchDir   = ".opengeo-tmp"
)

// Initialize prepares the GDAL runner. Docker mode fails when docker is not
// reachable. Auto mode uses the container when docker is available and falls
// back to a local GDAL install.
func Initialize(ctx context.Context, opts Options) error {
	logger := logging.FromContext(ctx)

	stateMu.Lock()
	defer stateMu.Unlock()

	if opts.TempDir != "" {
		scratchDir = opts.TempDir
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeAuto
	}

	switch opts.Mode {
	case config.ModeLocal:
		runMode = config.ModeLocal
		return nil

	case config.ModeDocker:
		c, err := docker.New(ctx, opts.Image, opts.WorkDir)
		if err != nil {
			return fmt.Errorf("initialize gdal: %w", err)
		}
		dockerClient = c
		runMode = config.ModeDocker
		return nil

	case config.ModeAuto:
		runMode = config.ModeAuto
		c, err := docker.New(ctx, opts.Image, opts.WorkDir)
		if err == nil {
			dockerClient = c
			logger.Debug("using GDAL container", zap.String("image", c.Image()))
			return nil
		}
		runMode = config.ModeLocal
		if _, lookErr := exec.LookPath("gdalinfo"); lookErr != nil {
			logger.Warn("no GDAL found: docker is unavailable and gdalinfo is not on PATH", zap.Error(err))
			return nil
		}
		logger.Debug("docker unavailable, using local GDAL install", zap.Error(err))
		return nil

	default:
		return fmt.Errorf("initialize gdal: unknown mode %q", opts.Mode)
	}
}

// Shutdown releases the docker client, if any.
func Shutdown() {
	stateMu.Lock()
	defer stateMu.Unlock()

	if dockerClient != nil {
		_ = dockerClient.Close()
		dockerClient = nil
	}
	runMode = config.ModeAuto
}

// GetClient returns the docker client, or nil when GDAL runs locally.
func GetClient() *docker.Client {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return dockerClient
}

func currentMode() string {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return runMode
}

func scratchBase() string {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return scratchDir
}
