package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"go-photo-engine/internal/cache"
	"go-photo-engine/internal/catalog"
	apperrors "go-photo-engine/internal/errors"
	"go-photo-engine/internal/storage"
	"go-photo-engine/pkg/models"
)

// StyleRunner is the on-device model collaborator: it applies one named
// style transform to an image and returns the styled image or an error.
// The concrete model is a black box to this package.
type StyleRunner interface {
	RunStyle(ctx context.Context, image []byte, styleID string) ([]byte, error)
}

// Engine is the local inference engine. Failures are per-style: a style
// whose model invocation fails is omitted from the results and reported
// as missing; only all styles failing fails the request.
type Engine struct {
	runner    StyleRunner
	artifacts *cache.LRU
	store     storage.ArtifactStore
	styles    *catalog.Catalog
	pool      *WorkerPool
	logger    *logrus.Logger
}

// NewEngine creates a local inference engine with a bounded invocation
// pool of the given concurrency.
func NewEngine(runner StyleRunner, artifacts *cache.LRU, store storage.ArtifactStore, styles *catalog.Catalog, concurrency int, logger *logrus.Logger) (*Engine, error) {
	if runner == nil {
		return nil, fmt.Errorf("style runner is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact cache is required")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if styles == nil {
		return nil, fmt.Errorf("style catalog is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pool := NewWorkerPool(concurrency)
	pool.Start()

	return &Engine{
		runner:    runner,
		artifacts: artifacts,
		store:     store,
		styles:    styles,
		pool:      pool,
		logger:    logger,
	}, nil
}

// styleOutcome is the per-style inference result collected by Run
type styleOutcome struct {
	ref string
	err error
}

// Run executes the requested styles with bounded concurrency. The cache
// is checked per (fingerprint, style) first; on a hit the model is not
// invoked and the cached artifact is returned tagged as a Local result.
// Results keep the requested style order.
func (e *Engine) Run(ctx context.Context, image []byte, styleIDs []string) ([]models.ProcessingResult, []string, error) {
	if len(styleIDs) == 0 {
		return nil, nil, apperrors.NewValidationError("no styles requested", nil)
	}

	fingerprint := cache.Fingerprint(image)
	outcomes := make([]styleOutcome, len(styleIDs))

	var wg sync.WaitGroup
	for i, styleID := range styleIDs {
		i, styleID := i, styleID
		wg.Add(1)
		e.pool.Submit(func() {
			defer wg.Done()
			ref, err := e.runOne(ctx, fingerprint, image, styleID)
			outcomes[i] = styleOutcome{ref: ref, err: err}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	results := make([]models.ProcessingResult, 0, len(styleIDs))
	var missing []string
	var firstErr error
	for i, styleID := range styleIDs {
		if outcomes[i].err != nil {
			if firstErr == nil {
				firstErr = outcomes[i].err
			}
			e.logger.WithError(outcomes[i].err).WithField("style", styleID).
				Warn("Style inference failed, omitting from results")
			missing = append(missing, styleID)
			continue
		}
		spec, _ := e.styles.Lookup(styleID)
		results = append(results, models.ProcessingResult{
			StyleID:     styleID,
			ArtifactRef: outcomes[i].ref,
			Origin:      models.OriginLocal,
			PremiumOnly: spec.PremiumOnly,
		})
	}

	if len(results) == 0 {
		return nil, missing, apperrors.NewAllStylesFailedError(
			fmt.Sprintf("all %d requested styles failed", len(styleIDs)), firstErr)
	}
	return results, missing, nil
}

// runOne produces the artifact ref for a single style, going through the
// cache so concurrent identical requests share one model invocation.
func (e *Engine) runOne(ctx context.Context, fingerprint string, image []byte, styleID string) (string, error) {
	key := cache.Key{Fingerprint: fingerprint, StyleID: styleID}
	return e.artifacts.GetOrCompute(key, func() (string, int64, error) {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		styled, err := e.runner.RunStyle(ctx, image, styleID)
		if err != nil {
			return "", 0, err
		}
		name := fmt.Sprintf("%s/%s.png", fingerprint[:16], styleID)
		ref, err := e.store.Save(ctx, name, styled)
		if err != nil {
			return "", 0, err
		}
		return ref, int64(len(styled)), nil
	})
}

// RenderPreview applies one style and returns the raw styled bytes. It
// goes through the same bounded pool as Run so previews cannot oversubscribe
// the device either.
func (e *Engine) RenderPreview(ctx context.Context, image []byte, styleID string) ([]byte, error) {
	if !e.styles.Contains(styleID) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown style: %s", styleID), nil)
	}

	type previewOutcome struct {
		data []byte
		err  error
	}
	done := make(chan previewOutcome, 1)
	e.pool.Submit(func() {
		data, err := e.runner.RunStyle(ctx, image, styleID)
		done <- previewOutcome{data: data, err: err}
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewCancelledError("preview cancelled", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, apperrors.NewAllStylesFailedError(
				fmt.Sprintf("preview inference failed for style %s", styleID), out.err)
		}
		return out.data, nil
	}
}

// Close shuts down the invocation pool
func (e *Engine) Close() {
	e.pool.Close()
}
