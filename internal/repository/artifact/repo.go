package artifact

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
)

// objectStore is the narrow slice of blob.Store the repository consumes.
type objectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// Repository reads and writes the artifact pair at a fixed location.
type Repository struct {
	store objectStore
	loc   Location
}

// NewRepository creates a repository over the given store and location.
func NewRepository(store objectStore, loc Location) *Repository {
	return &Repository{store: store, loc: loc}
}

// Publish writes both artifacts for one build: the index first, the metadata
// table second. A reader that catches the pair mid-replacement sees build IDs
// disagree and fails its load instead of serving misaligned results.
func (r *Repository) Publish(ctx context.Context, idx *index.Flat, records []domain.Record, m Manifest) error {
	if idx.Count() != len(records) {
		return fmt.Errorf("publish: metadata length %d != vector count %d", len(records), idx.Count())
	}

	indexData, err := index.EncodeFlat(idx, m.BuildID)
	if err != nil {
		return fmt.Errorf("publish: encode index: %w", err)
	}
	metaData, err := EncodeMetadata(m, records)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if err := r.store.Put(ctx, r.loc.Bucket, r.loc.IndexKey, indexData); err != nil {
		return fmt.Errorf("publish: put index %s/%s: %w", r.loc.Bucket, r.loc.IndexKey, err)
	}
	if err := r.store.Put(ctx, r.loc.Bucket, r.loc.MetadataKey, metaData); err != nil {
		return fmt.Errorf("publish: put metadata %s/%s: %w", r.loc.Bucket, r.loc.MetadataKey, err)
	}
	return nil
}

// Load fetches both artifacts, validates the pair invariants, and returns the
// snapshot. Every failure is classified ErrIndexUnavailable with the concrete
// cause chained, so a missing key and a length mismatch stay distinguishable
// in logs.
func (r *Repository) Load(ctx context.Context) (*Pair, error) {
	indexData, err := r.store.Get(ctx, r.loc.Bucket, r.loc.IndexKey)
	if err != nil {
		return nil, fmt.Errorf("fetch index %s/%s: %w: %w",
			r.loc.Bucket, r.loc.IndexKey, domain.ErrIndexUnavailable, err)
	}
	idx, indexBuildID, err := index.DecodeFlat(indexData)
	if err != nil {
		return nil, fmt.Errorf("decode index %s/%s: %w: %w",
			r.loc.Bucket, r.loc.IndexKey, domain.ErrIndexUnavailable, err)
	}

	metaData, err := r.store.Get(ctx, r.loc.Bucket, r.loc.MetadataKey)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata %s/%s: %w: %w",
			r.loc.Bucket, r.loc.MetadataKey, domain.ErrIndexUnavailable, err)
	}
	m, records, err := DecodeMetadata(metaData)
	if err != nil {
		return nil, fmt.Errorf("decode metadata %s/%s: %w: %w",
			r.loc.Bucket, r.loc.MetadataKey, domain.ErrIndexUnavailable, err)
	}

	if m.BuildID != indexBuildID {
		return nil, fmt.Errorf("torn pair: index build %s != metadata build %s: %w",
			indexBuildID, m.BuildID, domain.ErrIndexUnavailable)
	}
	if len(records) != idx.Count() {
		return nil, fmt.Errorf("metadata length %d != vector count %d: %w",
			len(records), idx.Count(), domain.ErrIndexUnavailable)
	}
	if m.Dimensions != idx.Dimensions() {
		return nil, fmt.Errorf("metadata dimensions %d != index dimensions %d: %w",
			m.Dimensions, idx.Dimensions(), domain.ErrIndexUnavailable)
	}

	return &Pair{Index: idx, Records: records, Manifest: m}, nil
}
