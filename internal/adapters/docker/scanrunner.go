package docker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	log "github.com/sirupsen/logrus"

	"github.com/melih/slipway/internal/core/domain"
)

// scanMount is where the service directory appears inside scanner
// containers; scan args in the configuration reference this path.
const scanMount = "/scan"

// ScanRunner implements ports.ScanRunner: one container per scan, the
// service directory bind-mounted read-only, the tool's exit code as the
// verdict.
type ScanRunner struct {
	cli *client.Client
}

func NewScanRunner() (*ScanRunner, error) {
	cli, err := newClient()
	if err != nil {
		return nil, err
	}
	return &ScanRunner{cli: cli}, nil
}

// RunScan pulls the scanner image if needed, runs it against dir and
// returns the container's exit code. The scanner's output is streamed
// into the structured log.
func (r *ScanRunner) RunScan(ctx context.Context, spec domain.ScanSpec, dir string) (int, error) {
	logger := log.WithFields(log.Fields{"scanner": spec.Name, "image": spec.Image})

	reader, err := r.cli.ImagePull(ctx, spec.Image, types.ImagePullOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to pull scanner image %s: %w", spec.Image, err)
	}
	io.Copy(io.Discard, reader)
	reader.Close()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve scan dir %s: %w", dir, err)
	}

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Args,
		WorkingDir:   scanMount,
		Tty:          true,
		AttachStdout: true,
		AttachStderr: true,
	}, &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:     mount.TypeBind,
			Source:   absDir,
			Target:   scanMount,
			ReadOnly: true,
		}},
	}, nil, nil, "")
	if err != nil {
		return 0, fmt.Errorf("failed to create scanner container: %w", err)
	}

	if err := r.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return 0, fmt.Errorf("failed to start scanner container: %w", err)
	}

	logs, err := r.cli.ContainerLogs(ctx, resp.ID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to attach scanner logs: %w", err)
	}
	scanner := bufio.NewScanner(logs)
	for scanner.Scan() {
		logger.Info(scanner.Text())
	}
	logs.Close()

	exitCode := 0
	statusCh, errCh := r.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case waitErr := <-errCh:
		if waitErr != nil {
			return 0, fmt.Errorf("failed waiting for scanner: %w", waitErr)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	if err := r.cli.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
		logger.WithError(err).Warn("failed to remove scanner container")
	}

	return exitCode, nil
}
