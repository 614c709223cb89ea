// Package collect merges per-job artifacts into one consolidated
// dataset. Every anomaly is reported, never worked around silently: a
// plausible-looking but partial merge is worse than a failed one.
package collect

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

// Options configures a collection run
type Options struct {
	// Pattern is the artifact glob; defaults to sweep.Pattern
	Pattern string
	// Expected, when set, enables the completeness check over the
	// full intended range
	Expected *models.ParameterRange
	// LastWins tolerates duplicate keys, keeping the row from the
	// lexicographically later artifact. Off by default: a duplicate
	// key means overlapping ranges, a sweep-construction bug.
	LastWins bool
}

// NoArtifactsFoundError means zero files matched: either the sweep has
// not finished or it finished with nothing to merge
type NoArtifactsFoundError struct {
	Pattern string
}

func (e *NoArtifactsFoundError) Error() string {
	return fmt.Sprintf("no artifacts found matching %q", e.Pattern)
}

// DuplicateKeyError means two artifacts both contain a row for K
type DuplicateKeyError struct {
	K      int
	First  string
	Second string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %d in artifacts %s and %s (overlapping ranges)", e.K, e.First, e.Second)
}

// IncompleteSweepError lists expected keys no artifact provided
type IncompleteSweepError struct {
	Expected models.ParameterRange
	Missing  []int
}

func (e *IncompleteSweepError) Error() string {
	shown := e.Missing
	suffix := ""
	if len(shown) > 10 {
		shown = shown[:10]
		suffix = ", ..."
	}
	parts := make([]string, len(shown))
	for i, k := range shown {
		parts[i] = fmt.Sprintf("%d", k)
	}
	return fmt.Sprintf("sweep over %s incomplete: %d keys missing (%s%s)",
		e.Expected, len(e.Missing), strings.Join(parts, ", "), suffix)
}

// Collect merges every artifact matching the pattern into one dataset,
// unique by key and sorted ascending
func Collect(store artifact.Store, opts Options) (*models.Dataset, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = sweep.Pattern
	}

	names, err := store.List(pattern)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &NoArtifactsFoundError{Pattern: pattern}
	}

	var header []string
	merged := make(map[int]models.Row)
	owner := make(map[int]string)

	// store.List is sorted, making last-writer-wins deterministic
	for _, name := range names {
		if _, err := sweep.ParseArtifactName(name); err != nil {
			return nil, err
		}

		r, err := store.Open(name)
		if err != nil {
			return nil, err
		}
		ds, err := artifact.ReadDataset(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", name, err)
		}

		if header == nil {
			header = ds.Header
		} else if !reflect.DeepEqual(header, ds.Header) {
			return nil, fmt.Errorf("artifact %s header %v does not match %v", name, ds.Header, header)
		}

		for _, row := range ds.Rows {
			if prev, ok := owner[row.K]; ok && !opts.LastWins {
				return nil, &DuplicateKeyError{K: row.K, First: prev, Second: name}
			}
			merged[row.K] = row
			owner[row.K] = name
		}
	}

	keys := make([]int, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	if opts.Expected != nil {
		var missing []int
		for k := opts.Expected.Low; k <= opts.Expected.High; k++ {
			if _, ok := merged[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return nil, &IncompleteSweepError{Expected: *opts.Expected, Missing: missing}
		}
	}

	out := &models.Dataset{Header: header, Rows: make([]models.Row, 0, len(keys))}
	for _, k := range keys {
		out.Rows = append(out.Rows, merged[k])
	}
	return out, nil
}

// Write persists the consolidated dataset wholesale. Reruns overwrite:
// there is no incremental merge.
func Write(path string, ds *models.Dataset) error {
	return artifact.WriteFileAtomic(path, ds)
}
