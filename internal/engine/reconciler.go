package engine

import "go-photo-engine/pkg/models"

// Merge reconciles the local and remote result sets of a hybrid run into
// one ordered, duplicate-free list. Remote results are authoritative and
// come first in their provided order; local results are appended only for
// styles the remote set does not cover, in their given order. Merge is a
// total function: it never fails.
func Merge(local, remote []models.ProcessingResult) []models.ProcessingResult {
	merged := make([]models.ProcessingResult, 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote))

	for _, r := range remote {
		if _, dup := seen[r.StyleID]; dup {
			continue
		}
		seen[r.StyleID] = struct{}{}
		merged = append(merged, r)
	}
	for _, l := range local {
		if _, covered := seen[l.StyleID]; covered {
			continue
		}
		seen[l.StyleID] = struct{}{}
		merged = append(merged, l)
	}
	return merged
}
