package docker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ContainerWorkDir is the working directory inside the container.
const ContainerWorkDir = "/work"

// Client runs GDAL tools inside a container using the docker CLI.
type Client struct {
	image   string
	workDir string

	pullOnce sync.Once
	pullErr  error
}

// New verifies docker is reachable and returns a client that mounts workDir
// (the current directory when empty) at /work.
func New(ctx context.Context, image, workDir string) (*Client, error) {
	if image == "" {
		return nil, fmt.Errorf("docker image is required")
	}

	cmd := exec.CommandContext(ctx, "docker", "ps")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker not available: %w", err)
	}

	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = cwd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}

	return &Client{image: image, workDir: abs}, nil
}

// Image returns the container image in use.
func (c *Client) Image() string {
	return c.image
}

// Close is a no-op for the CLI-based client.
func (c *Client) Close() error {
	return nil
}

// Run executes name inside a fresh container and captures stdout/stderr.
func (c *Client) Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error) {
	if err := c.ensureImage(ctx); err != nil {
		return "", "", fmt.Errorf("ensure image: %w", err)
	}

	dockerArgs := []string{
		"run",
		"--rm",
		"-v", fmt.Sprintf("%s:%s", c.workDir, ContainerWorkDir),
		"-w", ContainerWorkDir,
		c.image,
		name,
	}
	for _, arg := range args {
		dockerArgs = append(dockerArgs, c.convertArgForDocker(arg))
	}

	cmd := exec.CommandContext(ctx, "docker", dockerArgs...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err == nil {
		return stdout, stderr, nil
	}

	return stdout, stderr, formatDockerCommandError(FormatCommand(name, args), err, stderr)
}

func (c *Client) convertArgForDocker(arg string) string {
	if strings.HasPrefix(arg, "-") {
		return arg
	}
	if !shouldConvertPath(arg) {
		return arg
	}

	return c.convertPath(arg)
}

// convertPath maps a host path to its location under /work.
// Paths outside the work dir fall back to their base name.
func (c *Client) convertPath(filePath string) string {
	if !filepath.IsAbs(filePath) {
		return filepath.Join(ContainerWorkDir, filePath)
	}

	relPath, err := filepath.Rel(c.workDir, filePath)
	if err == nil && !strings.HasPrefix(relPath, "..") {
		return filepath.Join(ContainerWorkDir, relPath)
	}

	return filepath.Join(ContainerWorkDir, filepath.Base(filePath))
}

func (c *Client) ensureImage(ctx context.Context) error {
	c.pullOnce.Do(func() {
		cmd := exec.CommandContext(ctx, "docker", "inspect", c.image)
		if err := cmd.Run(); err == nil {
			return
		}

		cmd = exec.CommandContext(ctx, "docker", "pull", c.image)
		var stderrBuf bytes.Buffer
		cmd.Stderr = &stderrBuf
		if err := cmd.Run(); err != nil {
			c.pullErr = formatDockerPullError(err, stderrBuf.String())
		}
	})
	return c.pullErr
}

func formatDockerCommandError(command string, commandErr error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		return fmt.Errorf("command %s failed: %w", command, commandErr)
	}

	return fmt.Errorf("command %s failed: %w: %s", command, commandErr, detail)
}

func formatDockerPullError(commandErr error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		return fmt.Errorf("pull image: %w", commandErr)
	}

	return fmt.Errorf("pull image: %s", detail)
}

// FormatCommand renders a command line for error messages, quoting arguments
// that contain whitespace or quotes.
func FormatCommand(name string, args []string) string {
	parts := []string{quoteArg(name)}
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\r\"\\") {
		return strconv.Quote(arg)
	}
	return arg
}

var gisExtensions = []string{
	"tif", "tiff", "zip", "asc", "grd", "hdr", "jp2", "j2k", "img", "hdf", "h5",
	"nc", "netcdf", "vrt", "xml", "geojson", "json", "shp", "shx", "dbf", "gml",
	"gpkg", "fgb", "csv", "las", "laz",
}

// shouldConvertPath reports whether arg looks like a host file path.
func shouldConvertPath(arg string) bool {
	if arg == "" {
		return false
	}

	// GDAL virtual file systems are resolved inside the container.
	if strings.HasPrefix(arg, "/vsi") {
		return false
	}

	// WKT and SQL carry slashes and dots but are never paths.
	if strings.ContainsAny(arg, " [\"") {
		return false
	}

	if strings.ContainsAny(arg, "/\\") {
		return true
	}

	if strings.HasPrefix(arg, ".") || strings.HasPrefix(arg, "~") {
		return true
	}

	lowerArg := strings.ToLower(arg)
	for _, ext := range gisExtensions {
		if strings.HasSuffix(lowerArg, "."+ext) {
			return true
		}
	}

	return false
}
