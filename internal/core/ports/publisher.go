package ports

import "context"

// ImagePublisher defines the push and cleanup stages. This interface
// allows us to switch between Docker, Podman, or a remote build farm
// without changing the pipeline logic.
type ImagePublisher interface {
	// PushImage uploads ref to its registry.
	PushImage(ctx context.Context, ref string) error
	// RemoveImage deletes the local copy of ref after a push, or during
	// failure cleanup.
	RemoveImage(ctx context.Context, ref string) error
}
