package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-photo-engine/internal/cache"
	"go-photo-engine/internal/catalog"
	apperrors "go-photo-engine/internal/errors"
	"go-photo-engine/internal/observer"
	"go-photo-engine/pkg/models"
)

// PlanFunc is the strategy planner contract consumed by the orchestrator.
// It exists as a function type so tests can pin the decision.
type PlanFunc func(quality models.QualityLevel, networkScore, deviceScore float64) models.ProcessingStrategy

// Deps carries the collaborators an Orchestrator is constructed with.
// Everything is injected explicitly; there are no package-level singletons.
type Deps struct {
	Plan      PlanFunc
	Local     LocalEngine
	Remote    RemoteClient
	Sampler   ConditionSampler
	Artifacts *cache.LRU
	Styles    *catalog.Catalog
	Events    observer.Subject
	Logger    *logrus.Logger
	MaxStyles int
}

// Orchestrator coordinates one processing request through the state
// machine: Planning, Executing, Reconciling (hybrid only), an optional
// single FallbackExecuting pass, then Completed or Failed. Requests are
// independent; any number may be in flight concurrently.
type Orchestrator struct {
	plan      PlanFunc
	local     LocalEngine
	remote    RemoteClient
	sampler   ConditionSampler
	artifacts *cache.LRU
	styles    *catalog.Catalog
	events    observer.Subject
	logger    *logrus.Logger
	maxStyles int
}

// NewOrchestrator wires an orchestrator from its dependencies
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Local == nil {
		return nil, fmt.Errorf("local engine is required")
	}
	if deps.Remote == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if deps.Sampler == nil {
		return nil, fmt.Errorf("condition sampler is required")
	}
	if deps.Artifacts == nil {
		return nil, fmt.Errorf("artifact cache is required")
	}
	if deps.Styles == nil {
		return nil, fmt.Errorf("style catalog is required")
	}
	if deps.Plan == nil {
		deps.Plan = Plan
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.MaxStyles <= 0 {
		deps.MaxStyles = 8
	}
	return &Orchestrator{
		plan:      deps.Plan,
		local:     deps.Local,
		remote:    deps.Remote,
		sampler:   deps.Sampler,
		artifacts: deps.Artifacts,
		styles:    deps.Styles,
		events:    deps.Events,
		logger:    deps.Logger,
		maxStyles: deps.MaxStyles,
	}, nil
}

// pathOutcome is the join result of one execution path
type pathOutcome struct {
	results []models.ProcessingResult
	err     error
}

// Process runs the full state machine for one request and returns the
// final results or a terminal error. Every call terminates in Completed,
// Failed or Cancelled; the engine never retries beyond the single
// fallback attempt.
func (o *Orchestrator) Process(ctx context.Context, req models.ProcessingRequest, progress ProgressFunc) (*models.ProcessOutcome, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = start
	}
	tracker := newProgressTracker(progress)

	styleIDs, err := o.validateRequest(&req)
	if err != nil {
		return nil, err
	}

	o.notify(ctx, observer.ProcessingEvent{
		EventType: observer.ProcessingStarted,
		Timestamp: start,
		RequestID: req.ID,
		Metadata:  map[string]interface{}{"styles": len(styleIDs), "quality": req.Quality.String()},
	})

	if ctx.Err() != nil {
		return nil, o.cancelled(ctx, req.ID)
	}

	fingerprint := cache.Fingerprint(req.Image)

	// A fully cached request completes without planning or dispatch
	if cached, ok := o.lookupAll(fingerprint, styleIDs); ok {
		tracker.report(progressCompleted)
		o.notify(ctx, observer.ProcessingEvent{
			EventType: observer.CacheServed,
			Timestamp: time.Now(),
			RequestID: req.ID,
			Success:   true,
		})
		return o.complete(ctx, req, styleIDs, cached, models.ProcessingStrategy{
			Mode:         models.ModeOnDevice,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PrioritySpeed,
		}, true, start), nil
	}

	// Planning: pure decision, no failure mode. Scores are sampled fresh
	// for every request.
	networkScore := o.sampler.SampleNetworkScore(ctx)
	deviceScore := o.sampler.SampleDeviceScore(ctx)
	strategy := o.plan(req.Quality, networkScore, deviceScore)

	o.notify(ctx, observer.ProcessingEvent{
		EventType: observer.StrategyPlanned,
		Timestamp: time.Now(),
		RequestID: req.ID,
		Mode:      strategy.Mode,
		Success:   true,
		Metadata: map[string]interface{}{
			"network_score": networkScore,
			"device_score":  deviceScore,
			"fallback_mode": strategy.FallbackMode,
		},
	})

	// Executing
	tracker.report(progressDispatched)
	outcome := o.execute(ctx, strategy.Mode, req, styleIDs, tracker)

	if outcome.err != nil {
		if isCancellation(ctx, outcome.err) {
			return nil, o.cancelled(ctx, req.ID)
		}

		// FallbackExecuting: exactly one re-entry with the strategy's
		// declared fallback mode. A hybrid run that lost both paths forces
		// an on-device retry instead.
		fallbackMode := strategy.FallbackMode
		if strategy.Mode == models.ModeHybrid {
			fallbackMode = models.ModeOnDevice
		}
		o.logger.WithFields(logrus.Fields{
			"request_id":    req.ID,
			"failed_mode":   strategy.Mode,
			"fallback_mode": fallbackMode,
		}).Warn("Primary mode failed, attempting fallback")
		o.notify(ctx, observer.ProcessingEvent{
			EventType: observer.FallbackTriggered,
			Timestamp: time.Now(),
			RequestID: req.ID,
			Mode:      fallbackMode,
			ErrorMsg:  outcome.err.Error(),
		})

		outcome = o.execute(ctx, fallbackMode, req, styleIDs, tracker)
		if outcome.err != nil {
			if isCancellation(ctx, outcome.err) {
				return nil, o.cancelled(ctx, req.ID)
			}
			o.notify(ctx, observer.ProcessingEvent{
				EventType: observer.ProcessingFailed,
				Timestamp: time.Now(),
				RequestID: req.ID,
				Mode:      fallbackMode,
				Elapsed:   time.Since(start),
				ErrorMsg:  outcome.err.Error(),
			})
			return nil, outcome.err
		}
	}

	if ctx.Err() != nil {
		return nil, o.cancelled(ctx, req.ID)
	}

	tracker.report(progressReconciled)

	// Completed: write results through to the cache, then deliver
	o.writeThrough(fingerprint, outcome.results)
	result := o.complete(ctx, req, styleIDs, outcome.results, strategy, false, start)
	tracker.report(progressCompleted)
	return result, nil
}

// GenerateRealTimePreview applies a single style on-device and returns raw
// image bytes. It always bypasses the strategy planner and never invokes
// the remote service, keeping latency bounded for UI feedback loops.
func (o *Orchestrator) GenerateRealTimePreview(ctx context.Context, imageBytes []byte, styleID string) ([]byte, error) {
	if err := validateImageBytes(imageBytes); err != nil {
		return nil, err
	}
	if !o.styles.Contains(styleID) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown style: %s", styleID), nil)
	}
	if ctx.Err() != nil {
		return nil, apperrors.NewCancelledError("preview cancelled", ctx.Err())
	}
	return o.local.RenderPreview(ctx, imageBytes, styleID)
}

// execute dispatches one execution pass for the given mode
func (o *Orchestrator) execute(ctx context.Context, mode models.ProcessingMode, req models.ProcessingRequest, styleIDs []string, tracker *progressTracker) pathOutcome {
	switch mode {
	case models.ModeOnDevice, models.ModeFallback:
		results, _, err := o.local.Run(ctx, req.Image, styleIDs)
		return pathOutcome{results: results, err: err}
	case models.ModeCloud:
		results, err := o.remote.Submit(ctx, req.ID, req.Image, styleIDs)
		return pathOutcome{results: results, err: err}
	case models.ModeHybrid:
		return o.executeHybrid(ctx, req, styleIDs, tracker)
	default:
		return pathOutcome{err: apperrors.NewInternalError(fmt.Sprintf("unknown processing mode: %s", mode), nil)}
	}
}

// executeHybrid runs the local and remote paths concurrently and joins
// them. Either path's failure is non-fatal as long as the other produced
// results; only both failing surfaces an error to the caller, which then
// forces a single on-device retry.
func (o *Orchestrator) executeHybrid(ctx context.Context, req models.ProcessingRequest, styleIDs []string, tracker *progressTracker) pathOutcome {
	var (
		wg         sync.WaitGroup
		firstDone  sync.Once
		localPath  pathOutcome
		remotePath pathOutcome
	)

	markFirst := func() {
		firstDone.Do(func() { tracker.report(progressFirstPath) })
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		results, _, err := o.local.Run(ctx, req.Image, styleIDs)
		localPath = pathOutcome{results: results, err: err}
		markFirst()
	}()
	go func() {
		defer wg.Done()
		results, err := o.remote.Submit(ctx, req.ID, req.Image, styleIDs)
		remotePath = pathOutcome{results: results, err: err}
		markFirst()
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return pathOutcome{err: ctx.Err()}
	}

	switch {
	case localPath.err == nil && remotePath.err == nil:
		return pathOutcome{results: Merge(localPath.results, remotePath.results)}
	case remotePath.err != nil && localPath.err == nil:
		o.logger.WithError(remotePath.err).WithField("request_id", req.ID).
			Warn("Remote path failed in hybrid mode, proceeding with local results")
		return pathOutcome{results: localPath.results}
	case localPath.err != nil && remotePath.err == nil:
		o.logger.WithError(localPath.err).WithField("request_id", req.ID).
			Warn("Local path failed in hybrid mode, proceeding with remote results")
		return pathOutcome{results: remotePath.results}
	default:
		return pathOutcome{err: apperrors.NewInternalError(
			fmt.Sprintf("both hybrid paths failed: local=%v, remote=%v", localPath.err, remotePath.err),
			remotePath.err)}
	}
}

// validateRequest checks the request and returns the normalized style
// list: deduplicated and in catalog order, which keeps result ordering
// deterministic for identical inputs.
func (o *Orchestrator) validateRequest(req *models.ProcessingRequest) ([]string, error) {
	if err := validateImageBytes(req.Image); err != nil {
		return nil, err
	}
	if len(req.Styles) == 0 {
		return nil, apperrors.NewValidationError("at least one style is required", nil)
	}
	if len(req.Styles) > o.maxStyles {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("too many styles: %d requested, limit is %d", len(req.Styles), o.maxStyles), nil)
	}

	requested := make(map[string]struct{}, len(req.Styles))
	for _, id := range req.Styles {
		spec, ok := o.styles.Lookup(id)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown style: %s", id), nil)
		}
		if spec.PremiumOnly && req.Quality < models.QualityPremium {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("style %s requires premium or ultra quality", id), nil)
		}
		requested[id] = struct{}{}
	}

	normalized := make([]string, 0, len(requested))
	for _, spec := range o.styles.Styles() {
		if _, ok := requested[spec.ID]; ok {
			normalized = append(normalized, spec.ID)
		}
	}
	return normalized, nil
}

// lookupAll returns cached results for every requested style, or ok=false
// when any style misses. Origin is attached at read time: a cache hit
// retrieved locally is reported as a Local result.
func (o *Orchestrator) lookupAll(fingerprint string, styleIDs []string) ([]models.ProcessingResult, bool) {
	results := make([]models.ProcessingResult, 0, len(styleIDs))
	for _, id := range styleIDs {
		ref, ok := o.artifacts.Get(cache.Key{Fingerprint: fingerprint, StyleID: id})
		if !ok {
			return nil, false
		}
		spec, _ := o.styles.Lookup(id)
		results = append(results, models.ProcessingResult{
			StyleID:     id,
			ArtifactRef: ref,
			Origin:      models.OriginLocal,
			PremiumOnly: spec.PremiumOnly,
		})
	}
	return results, true
}

// writeThrough stores results the cache does not already hold. Entries
// written by the local engine during the run keep their byte sizes; only
// missing keys are added here.
func (o *Orchestrator) writeThrough(fingerprint string, results []models.ProcessingResult) {
	for _, r := range results {
		key := cache.Key{Fingerprint: fingerprint, StyleID: r.StyleID}
		if _, ok := o.artifacts.Get(key); !ok {
			o.artifacts.Put(key, r.ArtifactRef, 0)
		}
	}
}

// complete assembles the terminal outcome, including the partial-success
// metadata the caller needs to indicate missing styles.
func (o *Orchestrator) complete(ctx context.Context, req models.ProcessingRequest, styleIDs []string, results []models.ProcessingResult, strategy models.ProcessingStrategy, fromCache bool, start time.Time) *models.ProcessOutcome {
	produced := make(map[string]struct{}, len(results))
	for _, r := range results {
		produced[r.StyleID] = struct{}{}
	}
	var missing []string
	for _, id := range styleIDs {
		if _, ok := produced[id]; !ok {
			missing = append(missing, id)
		}
	}

	elapsed := time.Since(start)
	if !fromCache {
		o.notify(ctx, observer.ProcessingEvent{
			EventType: observer.ProcessingCompleted,
			Timestamp: time.Now(),
			RequestID: req.ID,
			Mode:      strategy.Mode,
			Elapsed:   elapsed,
			Success:   true,
			Metadata:  map[string]interface{}{"results": len(results), "missing": len(missing)},
		})
	}

	return &models.ProcessOutcome{
		RequestID:     req.ID,
		Strategy:      strategy,
		Results:       results,
		MissingStyles: missing,
		Partial:       len(missing) > 0,
		FromCache:     fromCache,
		Elapsed:       elapsed,
	}
}

// cancelled reports the Cancelled terminal state. No cache write happens
// on this path.
func (o *Orchestrator) cancelled(ctx context.Context, requestID string) error {
	o.notify(ctx, observer.ProcessingEvent{
		EventType: observer.ProcessingCancelled,
		Timestamp: time.Now(),
		RequestID: requestID,
	})
	return apperrors.NewCancelledError("processing cancelled by caller", context.Cause(ctx))
}

func (o *Orchestrator) notify(ctx context.Context, event observer.ProcessingEvent) {
	if o.events == nil {
		return
	}
	o.events.NotifyObservers(ctx, event)
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// validateImageBytes fails fast on malformed input, before any planning
func validateImageBytes(imageBytes []byte) error {
	if len(imageBytes) == 0 {
		return apperrors.NewInvalidImageError("empty image payload", nil)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return apperrors.NewInvalidImageError("unreadable image payload", err)
	}
	return nil
}
