package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// recordsFile is the on-disk envelope between the normalize and build steps.
type recordsFile struct {
	Org         string          `json:"org"`
	RecordCount int             `json:"record_count"`
	Records     []domain.Record `json:"records"`
}

// WriteRecords stores a canonical record sequence for a later build run.
func WriteRecords(path, org string, records []domain.Record) error {
	data, err := json.Marshal(recordsFile{
		Org:         org,
		RecordCount: len(records),
		Records:     records,
	})
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write records %s: %w", path, err)
	}
	return nil
}

// ReadRecords loads a record sequence produced by WriteRecords.
func ReadRecords(path string) (org string, records []domain.Record, err error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("read records %s: %w", path, err)
	}

	var rf recordsFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return "", nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	if rf.RecordCount != len(rf.Records) {
		return "", nil, fmt.Errorf("records file %s: record_count %d != records length %d",
			path, rf.RecordCount, len(rf.Records))
	}
	return rf.Org, rf.Records, nil
}
