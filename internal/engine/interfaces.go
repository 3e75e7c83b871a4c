package engine

import (
	"context"

	"go-photo-engine/pkg/models"
)

// LocalEngine runs styles through on-device model inference. Failures are
// per-style: styles the engine could not produce are returned in the
// missing list, and the error is non-nil only when every requested style
// failed.
type LocalEngine interface {
	Run(ctx context.Context, image []byte, styleIDs []string) (results []models.ProcessingResult, missing []string, err error)

	// RenderPreview applies a single style and returns raw image bytes for
	// rapid UI feedback. It never touches the network.
	RenderPreview(ctx context.Context, image []byte, styleID string) ([]byte, error)
}

// RemoteClient submits an image and a style list to the remote generation
// service in a single round trip. There is no partial-failure contract at
// this layer: the call either fails as a whole or succeeds, possibly with
// a sparse result list.
type RemoteClient interface {
	Submit(ctx context.Context, requestID string, image []byte, styleIDs []string) ([]models.ProcessingResult, error)
}

// ConditionSampler produces fresh environment scores in [0,1], polled once
// per planning decision and never cached across requests.
type ConditionSampler interface {
	SampleNetworkScore(ctx context.Context) float64
	SampleDeviceScore(ctx context.Context) float64
}
