package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

func dataset(header []string, rows ...models.Row) *models.Dataset {
	return &models.Dataset{Header: header, Rows: rows}
}

func TestReadWriteDataset(t *testing.T) {
	ds := dataset([]string{"k", "loglik", "perplexity"},
		models.Row{K: 1, Metrics: []float64{-120.5, 3.25}},
		models.Row{K: 2, Metrics: []float64{-118.25, 3.5}},
	)

	var buf strings.Builder
	if err := WriteDataset(&buf, ds); err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}

	got, err := ReadDataset(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}
	if len(got.Rows) != 2 || got.Rows[0].K != 1 || got.Rows[1].Metrics[1] != 3.5 {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if len(got.Header) != 3 || got.Header[0] != "k" {
		t.Errorf("Header mismatch: %v", got.Header)
	}
}

func TestReadDatasetRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no metric column": "k\n1\n",
		"wrong key column": "key,m\n1,2\n",
		"non-integer key":  "k,m\nx,2\n",
		"non-numeric cell": "k,m\n1,abc\n",
	}
	for name, input := range cases {
		if _, err := ReadDataset(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestValidateCoverage(t *testing.T) {
	r := models.ParameterRange{Low: 1, High: 3}
	header := []string{"k", "m"}

	ok := dataset(header,
		models.Row{K: 1, Metrics: []float64{1}},
		models.Row{K: 3, Metrics: []float64{3}},
		models.Row{K: 2, Metrics: []float64{2}},
	)
	if err := ValidateCoverage(r, ok); err != nil {
		t.Errorf("Complete coverage rejected: %v", err)
	}

	missing := dataset(header,
		models.Row{K: 1, Metrics: []float64{1}},
		models.Row{K: 3, Metrics: []float64{3}},
	)
	if err := ValidateCoverage(r, missing); err == nil {
		t.Error("Expected error for missing key, got nil")
	}

	outside := dataset(header,
		models.Row{K: 1, Metrics: []float64{1}},
		models.Row{K: 2, Metrics: []float64{2}},
		models.Row{K: 4, Metrics: []float64{4}},
	)
	if err := ValidateCoverage(r, outside); err == nil {
		t.Error("Expected error for key outside range, got nil")
	}

	duplicate := dataset(header,
		models.Row{K: 1, Metrics: []float64{1}},
		models.Row{K: 2, Metrics: []float64{2}},
		models.Row{K: 2, Metrics: []float64{2}},
	)
	if err := ValidateCoverage(r, duplicate); err == nil {
		t.Error("Expected error for duplicate key, got nil")
	}
}

// TestWriteArtifact verifies the happy path: exactly one artifact,
// deterministically named, rows sorted
func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	r := models.ParameterRange{Low: 5, High: 7}
	ds := dataset([]string{"k", "m"},
		models.Row{K: 7, Metrics: []float64{7}},
		models.Row{K: 5, Metrics: []float64{5}},
		models.Row{K: 6, Metrics: []float64{6}},
	)

	if err := WriteArtifact(dir, r, ds); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, sweep.ArtifactName(r)))
	if err != nil {
		t.Fatalf("Artifact not written under its deterministic name: %v", err)
	}
	defer f.Close()

	got, err := ReadDataset(f)
	if err != nil {
		t.Fatalf("Failed to read artifact back: %v", err)
	}
	for i, want := range []int{5, 6, 7} {
		if got.Rows[i].K != want {
			t.Errorf("Row %d has k=%d, expected %d", i, got.Rows[i].K, want)
		}
	}
}

// TestWriteArtifactAllOrNothing verifies a contract violation leaves
// no partial artifact behind
func TestWriteArtifactAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	r := models.ParameterRange{Low: 1, High: 5}
	partial := dataset([]string{"k", "m"}, models.Row{K: 1, Metrics: []float64{1}})

	if err := WriteArtifact(dir, r, partial); err == nil {
		t.Fatal("Expected contract violation error, got nil")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files after failed write, found %d", len(entries))
	}
}

func TestFSStoreListOpenExists(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"part_1_5.csv", "part_6_10.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("k,m\n1,2\n"), 0644); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	store := NewFSStore(dir)

	names, err := store.List("part_*.csv")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "part_1_5.csv" || names[1] != "part_6_10.csv" {
		t.Errorf("Unexpected listing: %v", names)
	}

	exists, err := store.Exists("part_1_5.csv")
	if err != nil || !exists {
		t.Errorf("Expected part_1_5.csv to exist, got %v, %v", exists, err)
	}
	exists, err = store.Exists("part_11_15.csv")
	if err != nil || exists {
		t.Errorf("Expected part_11_15.csv to be absent, got %v, %v", exists, err)
	}

	rc, err := store.Open("part_1_5.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	rc.Close()
}

func TestMemStoreMatchesFSStoreBehavior(t *testing.T) {
	store := NewMemStore()
	store.Put("part_1_5.csv", []byte("k,m\n1,2\n"))
	store.Put("results.csv", []byte("k,m\n1,2\n"))

	names, err := store.List("part_*.csv")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "part_1_5.csv" {
		t.Errorf("Unexpected listing: %v", names)
	}

	if _, err := store.Open("part_99_100.csv"); err == nil {
		t.Error("Expected error opening absent artifact, got nil")
	}
}
