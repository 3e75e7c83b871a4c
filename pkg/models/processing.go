package models

import (
	"fmt"
	"strings"
	"time"
)

// QualityLevel is the caller-selected quality tier for a processing request.
// Levels are ordered by expected latency/quality tradeoff.
type QualityLevel int

const (
	// QualityPreview trades fidelity for bounded, predictable latency
	QualityPreview QualityLevel = iota
	// QualityStandard is the default tier for everyday edits
	QualityStandard
	// QualityPremium prefers the remote service when conditions allow
	QualityPremium
	// QualityUltra is the highest-fidelity tier
	QualityUltra
)

// String returns the lowercase name of the quality level
func (q QualityLevel) String() string {
	switch q {
	case QualityPreview:
		return "preview"
	case QualityStandard:
		return "standard"
	case QualityPremium:
		return "premium"
	case QualityUltra:
		return "ultra"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// ParseQualityLevel converts a user-supplied string into a QualityLevel
func ParseQualityLevel(s string) (QualityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preview":
		return QualityPreview, nil
	case "standard", "":
		return QualityStandard, nil
	case "premium":
		return QualityPremium, nil
	case "ultra":
		return QualityUltra, nil
	default:
		return QualityStandard, fmt.Errorf("unknown quality level: %q", s)
	}
}

// ProcessingMode identifies which execution path handles a request.
// The mode is chosen by the strategy planner, never by the caller.
type ProcessingMode string

const (
	// ModeOnDevice runs styles through the local inference engine only
	ModeOnDevice ProcessingMode = "on_device"
	// ModeCloud runs styles through the remote generation service only
	ModeCloud ProcessingMode = "cloud"
	// ModeHybrid runs both paths concurrently and reconciles the results
	ModeHybrid ProcessingMode = "hybrid"
	// ModeFallback marks an execution that is already the fallback attempt
	ModeFallback ProcessingMode = "fallback"
)

// Priority expresses what the chosen strategy optimizes for
type Priority string

const (
	PrioritySpeed    Priority = "speed"
	PriorityQuality  Priority = "quality"
	PriorityBalanced Priority = "balanced"
)

// ProcessingStrategy is the planner's decision for one request.
// It is a value type and immutable once produced.
type ProcessingStrategy struct {
	Mode         ProcessingMode `json:"mode"`
	FallbackMode ProcessingMode `json:"fallback_mode"`
	Priority     Priority       `json:"priority"`
}

// ResultOrigin records which path produced (or retrieved) a result
type ResultOrigin string

const (
	OriginLocal  ResultOrigin = "local"
	OriginRemote ResultOrigin = "remote"
)

// StyleSpec describes one entry of the static style catalog
type StyleSpec struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	PremiumOnly  bool          `json:"premium_only"`
	ExpectedCost time.Duration `json:"expected_cost"`
}

// ProcessingResult is one produced artifact for one style.
// No two results in a response share a StyleID.
type ProcessingResult struct {
	StyleID     string       `json:"style_id"`
	ArtifactRef string       `json:"artifact_ref"`
	Origin      ResultOrigin `json:"origin"`
	PremiumOnly bool         `json:"premium_only"`
}

// ProcessingRequest carries one caller request through the engine.
// The orchestrator exclusively owns its lifecycle; it is discarded after
// the terminal result is delivered.
type ProcessingRequest struct {
	ID        string
	Image     []byte
	Quality   QualityLevel
	Styles    []string
	CreatedAt time.Time
}

// ProcessOutcome is the envelope returned for a completed request.
// Partial is set when some requested styles are missing from Results;
// partial success is metadata, not a failure.
type ProcessOutcome struct {
	RequestID     string             `json:"request_id"`
	Strategy      ProcessingStrategy `json:"strategy"`
	Results       []ProcessingResult `json:"results"`
	MissingStyles []string           `json:"missing_styles,omitempty"`
	Partial       bool               `json:"partial"`
	FromCache     bool               `json:"from_cache"`
	Elapsed       time.Duration      `json:"elapsed"`
}
