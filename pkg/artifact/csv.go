package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// KeyColumn is the required name of the first header column
const KeyColumn = "k"

// ReadDataset parses artifact CSV: a header row whose first column is
// the key, then one row per key with float64 metric columns
func ReadDataset(r io.Reader) (*models.Dataset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("artifact is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("artifact header needs a key column and at least one metric, got %v", header)
	}
	if header[0] != KeyColumn {
		return nil, fmt.Errorf("artifact key column must be %q, got %q", KeyColumn, header[0])
	}

	ds := &models.Dataset{Header: header}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact row: %w", err)
		}

		k, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad key %q: %w", line, record[0], err)
		}
		metrics := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad metric %q in column %s: %w", line, field, header[i+1], err)
			}
			metrics[i] = v
		}
		ds.Rows = append(ds.Rows, models.Row{K: k, Metrics: metrics})
	}
	return ds, nil
}

// WriteDataset writes a dataset in the artifact CSV format
func WriteDataset(w io.Writer, ds *models.Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(ds.Header))
	for _, row := range ds.Rows {
		if len(row.Metrics) != len(ds.Header)-1 {
			return fmt.Errorf("row k=%d has %d metrics, header declares %d", row.K, len(row.Metrics), len(ds.Header)-1)
		}
		record[0] = strconv.Itoa(row.K)
		for i, v := range row.Metrics {
			record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row k=%d: %w", row.K, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
