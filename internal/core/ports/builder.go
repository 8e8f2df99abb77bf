package ports

import "context"

// ImageBuilder defines the build stage: produce a container image from a
// service's source directory.
type ImageBuilder interface {
	// BuildImage builds dir into an image tagged ref.
	BuildImage(ctx context.Context, dir string, ref string) error
}
