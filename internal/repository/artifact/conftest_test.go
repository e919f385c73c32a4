package artifact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/reposcout/internal/blob"
	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
)

// mockStore implements the repository's consumer interface in memory.
type mockStore struct {
	objects  map[string][]byte
	getFn    func(ctx context.Context, bucket, key string) ([]byte, error)
	putFn    func(ctx context.Context, bucket, key string, data []byte) error
	getCalls int
}

func newMockStore() *mockStore {
	return &mockStore{objects: map[string][]byte{}}
}

func (m *mockStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(ctx, bucket, key)
	}
	data, ok := m.objects[bucket+":"+key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return data, nil
}

func (m *mockStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if m.putFn != nil {
		return m.putFn(ctx, bucket, key, data)
	}
	m.objects[bucket+":"+key] = data
	return nil
}

func testLocation() Location {
	return Location{Bucket: "reposcout", IndexKey: "index.bin", MetadataKey: "metadata.json"}
}

func testManifest() Manifest {
	return Manifest{
		BuildID:    uuid.New(),
		Org:        "aws-samples",
		Model:      "text-embedding-3-large",
		Dimensions: 2,
		BuiltAt:    time.Now().UTC(),
	}
}

func testRecords(n int) []domain.Record {
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{
			ID:          fmt.Sprintf("repo_%d", i),
			Name:        fmt.Sprintf("repo-%d", i),
			Org:         "aws-samples",
			Description: "test repository",
		}
	}
	return records
}

func testIndex(t *testing.T, vecs ...[]float32) *index.Flat {
	t.Helper()
	idx, err := index.NewFlat(2)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	for _, v := range vecs {
		if err := idx.Append(v); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return idx
}

// publishPair writes a valid pair into the store and returns its manifest.
func publishPair(t *testing.T, store *mockStore) Manifest {
	t.Helper()
	repo := NewRepository(store, testLocation())
	idx := testIndex(t, []float32{0, 0}, []float32{1, 0})
	m := testManifest()
	if err := repo.Publish(context.Background(), idx, testRecords(2), m); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	store.getCalls = 0
	return m
}

// countingLoader wraps a load function and counts invocations.
type countingLoader struct {
	loadFn func(ctx context.Context) (*Pair, error)
	calls  int
}

func (l *countingLoader) Load(ctx context.Context) (*Pair, error) {
	l.calls++
	return l.loadFn(ctx)
}
