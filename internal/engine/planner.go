package engine

import "go-photo-engine/pkg/models"

// Network and device score thresholds used by Plan. Higher quality tiers
// prefer the cloud for fidelity, but only when network conditions justify
// the latency and cost.
const (
	standardNetworkThreshold = 0.7
	standardDeviceThreshold  = 0.5
	premiumNetworkThreshold  = 0.8
	ultraNetworkThreshold    = 0.9
)

// Plan maps the requested quality tier and the sampled environment scores
// to a processing strategy. It is pure and deterministic: the same inputs
// always yield the same strategy, and it has no failure mode.
//
// Preview never touches the network; its latency must stay bounded and
// predictable. Hybrid is the safety net for the higher tiers: it still
// returns fast local results while cloud results are pending or
// unavailable.
func Plan(quality models.QualityLevel, networkScore, deviceScore float64) models.ProcessingStrategy {
	switch quality {
	case models.QualityPreview:
		return models.ProcessingStrategy{
			Mode:         models.ModeOnDevice,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PrioritySpeed,
		}
	case models.QualityStandard:
		if networkScore > standardNetworkThreshold && deviceScore > standardDeviceThreshold {
			return models.ProcessingStrategy{
				Mode:         models.ModeHybrid,
				FallbackMode: models.ModeOnDevice,
				Priority:     models.PriorityBalanced,
			}
		}
		return models.ProcessingStrategy{
			Mode:         models.ModeOnDevice,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PriorityBalanced,
		}
	case models.QualityPremium:
		if networkScore > premiumNetworkThreshold {
			return models.ProcessingStrategy{
				Mode:         models.ModeCloud,
				FallbackMode: models.ModeHybrid,
				Priority:     models.PriorityQuality,
			}
		}
		return models.ProcessingStrategy{
			Mode:         models.ModeHybrid,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PriorityQuality,
		}
	case models.QualityUltra:
		if networkScore > ultraNetworkThreshold {
			return models.ProcessingStrategy{
				Mode:         models.ModeCloud,
				FallbackMode: models.ModeHybrid,
				Priority:     models.PriorityQuality,
			}
		}
		return models.ProcessingStrategy{
			Mode:         models.ModeHybrid,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PriorityQuality,
		}
	default:
		// Unknown tiers behave like Standard under poor conditions
		return models.ProcessingStrategy{
			Mode:         models.ModeOnDevice,
			FallbackMode: models.ModeOnDevice,
			Priority:     models.PriorityBalanced,
		}
	}
}
