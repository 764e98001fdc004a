package repository

import (
	"math"
	"sort"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
)

var (
	_ interfaces.ChunkRepository = (*Firestore)(nil)
	_ interfaces.ChunkRepository = (*SQLite)(nil)
	_ interfaces.ChunkRepository = (*Memory)(nil)
)

// DefaultCollection is the collection (or table) holding ingested chunks
const DefaultCollection = "bank_knowledge"

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topK sorts fragments by score descending, keeping insertion order for ties, and truncates to k
func topK(fragments []*model.Fragment, k int) []*model.Fragment {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Score > fragments[j].Score
	})
	if k >= 0 && len(fragments) > k {
		fragments = fragments[:k]
	}
	return fragments
}
