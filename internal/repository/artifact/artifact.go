// Package artifact publishes and loads the index artifact pair: the binary
// vector index and the JSON metadata table. The two objects are always
// produced and shipped together; both carry the same build UUID so a torn
// pair is detected at load no matter which object a writer replaced first.
package artifact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
)

// Location fixes the bucket and the two key names the pair lives under.
type Location struct {
	Bucket      string
	IndexKey    string
	MetadataKey string
}

// Manifest describes one published build.
type Manifest struct {
	BuildID    uuid.UUID
	Org        string
	Model      string
	Dimensions int
	BuiltAt    time.Time
}

// Pair is a loaded, validated snapshot: the index, the position-aligned
// records, and the manifest of the build that produced them. Read-only.
type Pair struct {
	Index    *index.Flat
	Records  []domain.Record
	Manifest Manifest
}

// metadataEnvelope is the JSON layout of the metadata artifact.
type metadataEnvelope struct {
	BuildID     string          `json:"build_id"`
	Org         string          `json:"org"`
	Model       string          `json:"model"`
	Dimensions  int             `json:"dimensions"`
	BuiltAt     time.Time       `json:"built_at"`
	RecordCount int             `json:"record_count"`
	Records     []domain.Record `json:"records"`
}

// EncodeMetadata serializes the metadata table with its manifest.
func EncodeMetadata(m Manifest, records []domain.Record) ([]byte, error) {
	env := metadataEnvelope{
		BuildID:     m.BuildID.String(),
		Org:         m.Org,
		Model:       m.Model,
		Dimensions:  m.Dimensions,
		BuiltAt:     m.BuiltAt.UTC(),
		RecordCount: len(records),
		Records:     records,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata parses and structurally validates a metadata artifact.
func DecodeMetadata(data []byte) (Manifest, []domain.Record, error) {
	var env metadataEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Manifest{}, nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	buildID, err := uuid.Parse(env.BuildID)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("metadata build_id %q: %w", env.BuildID, err)
	}
	if env.RecordCount != len(env.Records) {
		return Manifest{}, nil, fmt.Errorf("metadata record_count %d != records length %d",
			env.RecordCount, len(env.Records))
	}

	m := Manifest{
		BuildID:    buildID,
		Org:        env.Org,
		Model:      env.Model,
		Dimensions: env.Dimensions,
		BuiltAt:    env.BuiltAt,
	}
	return m, env.Records, nil
}
