package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	log "github.com/sirupsen/logrus"
)

// Publisher implements ports.ImagePublisher using the Docker SDK.
// Registry credentials come from SLIPWAY_REGISTRY_USER and
// SLIPWAY_REGISTRY_PASSWORD; the push runs unauthenticated without them.
type Publisher struct {
	cli  *client.Client
	auth string
}

func NewPublisher() (*Publisher, error) {
	cli, err := newClient()
	if err != nil {
		return nil, err
	}
	auth, err := registryAuth()
	if err != nil {
		return nil, err
	}
	return &Publisher{cli: cli, auth: auth}, nil
}

func registryAuth() (string, error) {
	cfg := registry.AuthConfig{
		Username: os.Getenv("SLIPWAY_REGISTRY_USER"),
		Password: os.Getenv("SLIPWAY_REGISTRY_PASSWORD"),
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode registry auth: %w", err)
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}

// PushImage uploads ref to its registry.
func (p *Publisher) PushImage(ctx context.Context, ref string) error {
	reader, err := p.cli.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: p.auth})
	if err != nil {
		return fmt.Errorf("failed to push image %s: %w", ref, err)
	}
	defer reader.Close()

	out := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer out.Close()
	if err := jsonmessage.DisplayJSONMessagesStream(reader, out, 0, false, nil); err != nil {
		return fmt.Errorf("push of %s failed: %w", ref, err)
	}
	return nil
}

// RemoveImage deletes the local copy of ref.
func (p *Publisher) RemoveImage(ctx context.Context, ref string) error {
	_, err := p.cli.ImageRemove(ctx, ref, types.ImageRemoveOptions{PruneChildren: true})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}
	return nil
}
