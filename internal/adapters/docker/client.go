// Package docker implements the build, scan, push and cleanup
// collaborators on the Docker SDK.
package docker

import (
	"fmt"

	"github.com/docker/docker/client"
)

func newClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}
