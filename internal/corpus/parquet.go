package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// readParquetRows loads a classification export in Parquet form. Rows go
// through the generic row API with leaf columns resolved by name, so the
// reader tolerates extra columns and arbitrary column order.
func readParquetRows(path string) ([]row, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	names := leafColumns(pf)
	rows := make([]row, 0, int(pf.NumRows()))

	for _, rg := range pf.RowGroups() {
		rr := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, 256)

		for {
			n, readErr := rr.ReadRows(buf)
			for i := 0; i < n; i++ {
				rows = append(rows, rowFromParquet(buf[i], names))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read parquet rows: %w", readErr)
			}
		}
	}
	return rows, nil
}

// leafColumns maps leaf column index to export column name for the columns
// the normalizer consumes.
func leafColumns(pf *parquet.File) map[int]string {
	wanted := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		wanted[c] = struct{}{}
	}

	names := make(map[int]string)
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		if _, ok := wanted[path[0]]; ok {
			names[i] = path[0]
		}
	}
	return names
}

func rowFromParquet(pr parquet.Row, names map[int]string) row {
	r := make(row, len(names))
	for _, v := range pr {
		name, ok := names[v.Column()]
		if !ok || v.IsNull() {
			continue
		}
		r[name] = valueString(v)
	}
	return r
}

// valueString renders a parquet value the way the CSV export carries it.
func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Int32, parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float, parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	default:
		return v.String()
	}
}
