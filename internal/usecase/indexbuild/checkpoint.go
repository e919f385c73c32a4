package indexbuild

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// File names inside the checkpoint directory.
const (
	progressFile = "checkpoint.json"
	vectorsFile  = "vectors.f32"
)

// progress is the watermark of a partial build: how many records have
// completed vectors in the sidecar slab, and the parameters they were
// embedded under.
type progress struct {
	Processed  int       `json:"processed"`
	Total      int       `json:"total"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Checkpoint persists partial build state so an interrupted run continues
// from the last completed batch instead of re-spending embedding calls.
// Two files: a raw little-endian float32 vector slab and a JSON watermark.
// The slab lands before the watermark on every save, so the watermark never
// points past data that exists.
type Checkpoint struct {
	dir   string
	dims  int
	model string
}

// NewCheckpoint creates a checkpoint rooted at dir for builds with the given
// embedding parameters.
func NewCheckpoint(dir string, dims int, model string) *Checkpoint {
	return &Checkpoint{dir: filepath.Clean(dir), dims: dims, model: model}
}

// Load restores the vector slab and processed count of a previous run.
// No checkpoint on disk is not an error: it returns (nil, 0, nil). A
// checkpoint written for a different corpus size, dimension, or model fails
// the load, because resuming it would misalign vectors and records.
func (c *Checkpoint) Load(total int) ([]float32, int, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, progressFile))
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read checkpoint: %w", err)
	}

	var p progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, 0, fmt.Errorf("parse checkpoint: %w", err)
	}
	if p.Total != total || p.Dimensions != c.dims || p.Model != c.model {
		return nil, 0, fmt.Errorf(
			"checkpoint mismatch: saved total=%d dims=%d model=%q, build wants total=%d dims=%d model=%q (delete %s to start over)",
			p.Total, p.Dimensions, p.Model, total, c.dims, c.model, c.dir)
	}
	if p.Processed < 0 || p.Processed > total {
		return nil, 0, fmt.Errorf("checkpoint processed %d out of range 0..%d", p.Processed, total)
	}
	if p.Processed == 0 {
		return nil, 0, nil
	}

	raw, err := os.ReadFile(filepath.Join(c.dir, vectorsFile))
	if err != nil {
		return nil, 0, fmt.Errorf("read checkpoint vectors: %w", err)
	}
	need := p.Processed * c.dims
	if len(raw) < 4*need {
		return nil, 0, fmt.Errorf("checkpoint vectors truncated: %d bytes, watermark needs %d",
			len(raw), 4*need)
	}

	vecs := make([]float32, need)
	for i := range vecs {
		vecs[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i : 4*i+4]))
	}
	return vecs, p.Processed, nil
}

// Save writes the slab, then the watermark, each through a tmp+rename so a
// crash leaves either the previous checkpoint or the new one, never a torn
// file.
func (c *Checkpoint) Save(vecs []float32, processed, total int) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	raw := make([]byte, 4*len(vecs))
	for i, v := range vecs {
		binary.LittleEndian.PutUint32(raw[4*i:4*i+4], math.Float32bits(v))
	}
	if err := atomicWrite(filepath.Join(c.dir, vectorsFile), raw); err != nil {
		return fmt.Errorf("write checkpoint vectors: %w", err)
	}

	p := progress{
		Processed:  processed,
		Total:      total,
		Dimensions: c.dims,
		Model:      c.model,
		UpdatedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := atomicWrite(filepath.Join(c.dir, progressFile), data); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Remove deletes the checkpoint files after a successful build. Missing
// files are fine: removing an absent checkpoint is a no-op.
func (c *Checkpoint) Remove() error {
	for _, name := range []string{progressFile, vectorsFile} {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove checkpoint %s: %w", name, err)
		}
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
