package sampler

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// ProbeSampler derives fresh environment scores for each planning
// decision. The network score comes from a latency probe against a
// configurable URL; the device score from current runtime load. Scores
// are never cached across requests.
type ProbeSampler struct {
	probeURL   string
	httpClient *http.Client
}

// NewProbeSampler creates a sampler that probes probeURL for network
// conditions. An empty probeURL yields a neutral network score of 0.5.
func NewProbeSampler(probeURL string) *ProbeSampler {
	return &ProbeSampler{
		probeURL: probeURL,
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

// SampleNetworkScore measures round-trip latency to the probe URL and
// maps it onto [0,1]. Unreachable probes score 0.
func (s *ProbeSampler) SampleNetworkScore(ctx context.Context) float64 {
	if s.probeURL == "" {
		return 0.5
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.probeURL, nil)
	if err != nil {
		return 0
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0
	}

	return latencyScore(time.Since(start))
}

// latencyScore maps probe round-trip time onto [0,1]: instant responses
// approach 1, anything beyond two seconds approaches 0.
func latencyScore(rtt time.Duration) float64 {
	const worst = 2 * time.Second
	if rtt <= 0 {
		return 1
	}
	if rtt >= worst {
		return 0
	}
	return clamp(1 - float64(rtt)/float64(worst))
}

// SampleDeviceScore estimates headroom from scheduler pressure: many
// runnable goroutines per CPU means the device is busy.
func (s *ProbeSampler) SampleDeviceScore(ctx context.Context) float64 {
	cpus := runtime.NumCPU()
	if cpus <= 0 {
		cpus = 1
	}
	load := float64(runtime.NumGoroutine()) / float64(cpus*16)
	return clamp(1 - load)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// StaticSampler returns fixed scores. It backs tests and deployments
// where probing is undesirable.
type StaticSampler struct {
	Network float64
	Device  float64
}

// NewStaticSampler creates a sampler with fixed, clamped scores
func NewStaticSampler(network, device float64) *StaticSampler {
	return &StaticSampler{Network: clamp(network), Device: clamp(device)}
}

func (s *StaticSampler) SampleNetworkScore(ctx context.Context) float64 { return s.Network }

func (s *StaticSampler) SampleDeviceScore(ctx context.Context) float64 { return s.Device }
