// Package sweep defines how parameter ranges map to artifact names and
// how an overall range is split into submission segments.
package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// Pattern matches artifact files produced by workers
const Pattern = "part_*.csv"

// ArtifactName encodes a parameter range as an artifact filename.
// The encoding is injective: distinct ranges always produce distinct
// names, and the name contains only path-safe characters.
func ArtifactName(r models.ParameterRange) string {
	return fmt.Sprintf("part_%d_%d.csv", r.Low, r.High)
}

// ParseArtifactName recovers the owning parameter range from an
// artifact filename. It is the inverse of ArtifactName.
func ParseArtifactName(name string) (models.ParameterRange, error) {
	var r models.ParameterRange
	trimmed, ok := strings.CutPrefix(name, "part_")
	if !ok {
		return r, fmt.Errorf("artifact name %q: missing part_ prefix", name)
	}
	trimmed, ok = strings.CutSuffix(trimmed, ".csv")
	if !ok {
		return r, fmt.Errorf("artifact name %q: missing .csv suffix", name)
	}
	// Split on the last separator so negative lows parse cleanly
	sep := strings.LastIndex(trimmed, "_")
	if sep <= 0 {
		return r, fmt.Errorf("artifact name %q: malformed range", name)
	}
	low, err := strconv.Atoi(trimmed[:sep])
	if err != nil {
		return r, fmt.Errorf("artifact name %q: bad low bound: %w", name, err)
	}
	high, err := strconv.Atoi(trimmed[sep+1:])
	if err != nil {
		return r, fmt.Errorf("artifact name %q: bad high bound: %w", name, err)
	}
	r = models.ParameterRange{Low: low, High: high}
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("artifact name %q: %w", name, err)
	}
	return r, nil
}

// Plan splits [low, high] into the given number of contiguous disjoint
// segments that together cover the range exactly. Segment sizes differ
// by at most one key.
func Plan(low, high, segments int) ([]models.ParameterRange, error) {
	overall := models.ParameterRange{Low: low, High: high}
	if err := overall.Validate(); err != nil {
		return nil, err
	}
	if segments < 1 {
		return nil, fmt.Errorf("segments must be positive, got %d", segments)
	}
	total := overall.Count()
	if segments > total {
		segments = total
	}

	ranges := make([]models.ParameterRange, 0, segments)
	base := total / segments
	extra := total % segments
	next := low
	for i := 0; i < segments; i++ {
		size := base
		if i < extra {
			size++
		}
		ranges = append(ranges, models.ParameterRange{Low: next, High: next + size - 1})
		next += size
	}
	return ranges, nil
}
