package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	log "github.com/sirupsen/logrus"
)

// Builder implements ports.ImageBuilder using the Docker SDK.
type Builder struct {
	cli *client.Client
}

func NewBuilder() (*Builder, error) {
	cli, err := newClient()
	if err != nil {
		return nil, err
	}
	return &Builder{cli: cli}, nil
}

// BuildImage tars dir as the build context and builds it into an image
// tagged ref. The daemon's JSON message stream is drained through the
// debug log; an error message in the stream fails the build.
func (b *Builder) BuildImage(ctx context.Context, dir string, ref string) error {
	buildCtx, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context for %s: %w", dir, err)
	}

	resp, err := b.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{ref},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", ref, err)
	}
	defer resp.Body.Close()

	out := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer out.Close()
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, nil); err != nil {
		return fmt.Errorf("build of %s failed: %w", ref, err)
	}
	return nil
}
