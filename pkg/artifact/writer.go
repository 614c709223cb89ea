package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

// ValidateCoverage checks the worker contract: the dataset must hold
// exactly one row for every integer in the range, no more, no fewer
func ValidateCoverage(r models.ParameterRange, ds *models.Dataset) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if len(ds.Rows) != r.Count() {
		return fmt.Errorf("range %s needs %d rows, dataset has %d", r, r.Count(), len(ds.Rows))
	}
	seen := make(map[int]bool, len(ds.Rows))
	for _, row := range ds.Rows {
		if !r.Contains(row.K) {
			return fmt.Errorf("row k=%d outside range %s", row.K, r)
		}
		if seen[row.K] {
			return fmt.Errorf("duplicate row k=%d in range %s", row.K, r)
		}
		seen[row.K] = true
	}
	return nil
}

// WriteArtifact validates coverage and writes the dataset to its
// deterministic artifact name under dir. The write is all-or-nothing:
// rows go to a temp file that is renamed into place only after a
// successful flush, so a crashing worker never leaves a partial
// artifact behind.
func WriteArtifact(dir string, r models.ParameterRange, ds *models.Dataset) error {
	if err := ValidateCoverage(r, ds); err != nil {
		return fmt.Errorf("worker contract violation: %w", err)
	}

	sorted := &models.Dataset{Header: ds.Header, Rows: append([]models.Row(nil), ds.Rows...)}
	sort.Slice(sorted.Rows, func(i, j int) bool { return sorted.Rows[i].K < sorted.Rows[j].K })

	return WriteFileAtomic(filepath.Join(dir, sweep.ArtifactName(r)), sorted)
}

// WriteFileAtomic writes a dataset to path via write-then-rename
func WriteFileAtomic(path string, ds *models.Dataset) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp_%s_%s", filepath.Base(path), uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := WriteDataset(f, ds); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s into place: %w", tmp, err)
	}
	return nil
}
