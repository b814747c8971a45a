package port

import (
	"context"
	"errors"
)

// ErrVisionUnavailable marks a vision model that is unreachable or not
// configured. Implementations wrap it so callers can classify the failure
// without knowing the provider.
var ErrVisionUnavailable = errors.New("vision model unavailable")

// VisionModel abstracts an image-understanding model. Implementations send one
// prompt plus one inline image and return the model's raw text response with
// no guarantee about its format.
type VisionModel interface {
	Generate(ctx context.Context, prompt string, image []byte, contentType string) (string, error)
}
