package indexbuild

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

func assertIndexMatchesRecords(t *testing.T, res *Result, records []domain.Record) {
	t.Helper()
	if res.Index.Count() != len(records) {
		t.Fatalf("index count = %d, want %d", res.Index.Count(), len(records))
	}
	for i, rec := range records {
		want := testVec(rec.EmbedText(), testDims)
		got := res.Index.Vector(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("vector %d component %d = %v, want %v (record order broken)",
					i, j, got[j], want[j])
			}
		}
	}
}

func TestBuild_EmbedsAllRecordsInOrder(t *testing.T) {
	records := buildRecords(t, 7)
	embed := &stubEmbedder{dims: testDims}
	svc := newBuilder(t, embed, nil, 3)

	res, err := svc.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if embed.calls != 3 {
		t.Errorf("embedder calls = %d, want 3 batches of <=3", embed.calls)
	}
	assertIndexMatchesRecords(t, res, records)

	if res.Manifest.BuildID == uuid.Nil {
		t.Error("manifest build ID is nil")
	}
	if res.Manifest.Org != "aws-samples" || res.Manifest.Model != "text-embedding-3-small" {
		t.Errorf("manifest org/model = %q/%q", res.Manifest.Org, res.Manifest.Model)
	}
	if res.Manifest.Dimensions != testDims {
		t.Errorf("manifest dimensions = %d, want %d", res.Manifest.Dimensions, testDims)
	}
	if res.Embedded != 7 {
		t.Errorf("embedded = %d, want 7", res.Embedded)
	}
	if res.Tokens == 0 {
		t.Error("expected token usage to be counted")
	}
}

func TestBuild_FreshBuildIDPerBuild(t *testing.T) {
	records := buildRecords(t, 2)
	svc := newBuilder(t, &stubEmbedder{dims: testDims}, nil, 10)

	first, err := svc.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := svc.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if first.Manifest.BuildID == second.Manifest.BuildID {
		t.Error("rebuild reused the previous build ID")
	}
}

func TestBuild_EmptyRecordsRejected(t *testing.T) {
	svc := newBuilder(t, &stubEmbedder{dims: testDims}, nil, 10)

	if _, err := svc.Build(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty record set")
	}
}

func TestBuild_InvalidDimensionsRejectedBeforeEmbedding(t *testing.T) {
	embed := &stubEmbedder{dims: testDims}
	svc := New(embed, nil, Config{Org: "x", Model: "m", Dimensions: 0}, zap.NewNop())

	if _, err := svc.Build(context.Background(), buildRecords(t, 2)); err == nil {
		t.Fatal("expected dimensions error")
	}
	if embed.calls != 0 {
		t.Errorf("embedder called %d times before config validation", embed.calls)
	}
}

func TestBuild_EmbedderFailureAborts(t *testing.T) {
	cause := errors.New("provider down")
	embed := &stubEmbedder{dims: testDims, failOn: map[int]error{2: cause}}
	svc := newBuilder(t, embed, nil, 3)

	_, err := svc.Build(context.Background(), buildRecords(t, 7))
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want wrapped cause", err)
	}
	if embed.calls != 2 {
		t.Errorf("embedder calls = %d, want stop after failing batch", embed.calls)
	}
}

func TestBuild_WrongVectorDimensionFatal(t *testing.T) {
	embed := &stubEmbedder{dims: testDims + 1}
	svc := newBuilder(t, embed, nil, 10)

	_, err := svc.Build(context.Background(), buildRecords(t, 3))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("error = %v, want ErrVectorDimMismatch", err)
	}
}

func TestBuild_ResumeContinuesFromCheckpoint(t *testing.T) {
	records := buildRecords(t, 7)
	dir := t.TempDir()

	// First run fails on the second batch, leaving the first three vectors
	// checkpointed.
	failing := &stubEmbedder{dims: testDims, failOn: map[int]error{2: errors.New("throttled")}}
	cp := NewCheckpoint(dir, testDims, "text-embedding-3-small")
	if _, err := newBuilder(t, failing, cp, 3).Build(context.Background(), records); err == nil {
		t.Fatal("expected first run to fail")
	}

	resumed := &stubEmbedder{dims: testDims}
	res, err := newBuilder(t, resumed, NewCheckpoint(dir, testDims, "text-embedding-3-small"), 3).
		Build(context.Background(), records)
	if err != nil {
		t.Fatalf("resumed Build: %v", err)
	}

	if resumed.calls != 2 {
		t.Errorf("resumed run made %d calls, want 2 (records 3..6 only)", resumed.calls)
	}
	if len(resumed.inputs) == 0 || resumed.inputs[0][0] != records[3].EmbedText() {
		t.Error("resumed run did not start at the first unprocessed record")
	}
	if res.Embedded != 4 {
		t.Errorf("embedded = %d, want 4 new vectors", res.Embedded)
	}
	assertIndexMatchesRecords(t, res, records)

	// Success removes the checkpoint.
	if _, processed, err := cp.Load(len(records)); err != nil || processed != 0 {
		t.Errorf("checkpoint after success: processed=%d err=%v, want removed", processed, err)
	}
}

func TestBuild_CheckpointMismatchFailsBuild(t *testing.T) {
	records := buildRecords(t, 4)
	dir := t.TempDir()

	if err := NewCheckpoint(dir, testDims, "other-model").Save(make([]float32, 2*testDims), 2, 4); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	embed := &stubEmbedder{dims: testDims}
	cp := NewCheckpoint(dir, testDims, "text-embedding-3-small")
	if _, err := newBuilder(t, embed, cp, 2).Build(context.Background(), records); err == nil {
		t.Fatal("expected checkpoint mismatch to fail the build")
	}
	if embed.calls != 0 {
		t.Errorf("embedder called %d times despite bad checkpoint", embed.calls)
	}
}
