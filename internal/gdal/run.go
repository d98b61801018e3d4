package gdal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"opengeo/internal/config"
	"opengeo/internal/docker"
	"opengeo/internal/logging"
)

// ModeEnv overrides the configured execution mode for every call.
const ModeEnv = "OPENGEO_GDAL_MODE"

// Run executes a GDAL command either on the host or in the GDAL container.
// It captures stdout/stderr separately and returns a detailed error if the command fails.
func Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(ModeEnv)))
	if mode == "" {
		mode = currentMode()
	}

	logger := logging.FromContext(ctx)
	start := time.Now()
	defer func() {
		logger.Debug("gdal command",
			zap.String("mode", mode),
			zap.String("command", docker.FormatCommand(name, args)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}()

	if mode == config.ModeLocal {
		return runLocal(ctx, name, args...)
	}

	client := GetClient()
	if client == nil {
		if mode == config.ModeDocker {
			return "", "", fmt.Errorf("docker client not initialized - call Initialize() first")
		}
		return runLocal(ctx, name, args...)
	}

	return client.Run(ctx, name, args...)
}

func runLocal(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()
	if err != nil {
		cmdStr := docker.FormatCommand(name, args)
		detail := strings.TrimSpace(stderr)
		if detail != "" {
			return stdout, stderr, fmt.Errorf("command %s failed: %w: %s", cmdStr, err, detail)
		}
		return stdout, stderr, fmt.Errorf("command %s failed: %w", cmdStr, err)
	}

	return stdout, stderr, nil
}
