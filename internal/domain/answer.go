package domain

// RetrievedRecord pairs a corpus Record with its distance to the query
// embedding. Distance is true Euclidean (L2): non-negative, 0 for an
// identical embedding.
type RetrievedRecord struct {
	Record   Record
	Distance float64
}

// Score maps distance into (0, 1], higher is closer.
func (r RetrievedRecord) Score() float64 {
	return SimilarityScore(r.Distance)
}

// SimilarityScore converts an L2 distance to a similarity in (0, 1].
func SimilarityScore(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// Answer is the synthesized response plus the records that ground it.
// Degraded is set when retrieval succeeded but synthesis did not: Sources
// are still populated, Text is empty.
type Answer struct {
	Text     string
	Sources  []RetrievedRecord
	Degraded bool
}
