package sweep

import (
	"testing"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

func TestArtifactNameRoundTrip(t *testing.T) {
	ranges := []models.ParameterRange{
		{Low: 1, High: 5},
		{Low: 10, High: 13},
		{Low: -20, High: -3},
		{Low: 7, High: 7},
	}
	for _, r := range ranges {
		name := ArtifactName(r)
		parsed, err := ParseArtifactName(name)
		if err != nil {
			t.Fatalf("ParseArtifactName(%q) failed: %v", name, err)
		}
		if parsed != r {
			t.Errorf("Round trip %v -> %q -> %v", r, name, parsed)
		}
	}
}

func TestArtifactNameInjective(t *testing.T) {
	seen := make(map[string]models.ParameterRange)
	for low := -3; low <= 3; low++ {
		for high := low; high <= low+5; high++ {
			r := models.ParameterRange{Low: low, High: high}
			name := ArtifactName(r)
			if prev, ok := seen[name]; ok {
				t.Fatalf("Ranges %v and %v both encode to %q", prev, r, name)
			}
			seen[name] = r
		}
	}
}

func TestParseArtifactNameRejectsMalformed(t *testing.T) {
	bad := []string{
		"results.csv",
		"part_.csv",
		"part_1.csv",
		"part_1_2",
		"part_a_b.csv",
		"part_5_1.csv", // low > high
	}
	for _, name := range bad {
		if _, err := ParseArtifactName(name); err == nil {
			t.Errorf("Expected error parsing %q, got nil", name)
		}
	}
}

func TestPlanCoversRangeDisjointly(t *testing.T) {
	cases := []struct {
		low, high, segments int
	}{
		{1, 100, 7},
		{0, 9, 10},
		{5, 5, 1},
		{-10, 10, 4},
		{1, 3, 8}, // more segments than keys
	}
	for _, tc := range cases {
		ranges, err := Plan(tc.low, tc.high, tc.segments)
		if err != nil {
			t.Fatalf("Plan(%d, %d, %d) failed: %v", tc.low, tc.high, tc.segments, err)
		}

		next := tc.low
		for _, r := range ranges {
			if r.Low != next {
				t.Fatalf("Plan(%d, %d, %d): segment %v starts at %d, expected %d",
					tc.low, tc.high, tc.segments, r, r.Low, next)
			}
			if r.High < r.Low {
				t.Fatalf("Plan(%d, %d, %d): invalid segment %v", tc.low, tc.high, tc.segments, r)
			}
			next = r.High + 1
		}
		if next != tc.high+1 {
			t.Errorf("Plan(%d, %d, %d): coverage ends at %d, expected %d",
				tc.low, tc.high, tc.segments, next-1, tc.high)
		}
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	if _, err := Plan(10, 5, 2); err == nil {
		t.Error("Expected error for low > high, got nil")
	}
	if _, err := Plan(1, 10, 0); err == nil {
		t.Error("Expected error for zero segments, got nil")
	}
}
