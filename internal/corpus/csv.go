package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// readCSVRows loads a classification export in CSV form. The header row
// names the columns; headers are matched case-insensitively and columns the
// normalizer does not know are ignored.
func readCSVRows(path string) ([]row, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Short rows surface as missing fields and get dropped by the required
	// checks, instead of aborting the whole run.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []row
	for {
		vals, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec := make(row, len(header))
		for i, h := range header {
			if i < len(vals) {
				rec[h] = vals[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
