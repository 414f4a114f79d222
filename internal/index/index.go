// Package index provides an in-memory vector index over document chunks
// with brute-force cosine similarity search. The index holds exactly one
// document's chunks at a time; ingesting a new document replaces the
// previous contents atomically.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyVector       = errors.New("empty embedding vector")
)

// Entry is an indexed chunk: its position in the document, its text, and
// its embedding vector.
type Entry struct {
	Ordinal int
	Text    string
	Vector  []float32
}

// Result is a search hit with its cosine similarity score in [-1, 1].
type Result struct {
	Ordinal int
	Text    string
	Score   float64
}

// Index is a thread-safe in-memory vector store. Reads take a shared lock
// so searches can run concurrently; Replace and Clear take the write lock.
type Index struct {
	mu      sync.RWMutex
	entries []Entry
	dim     int
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Replace swaps the index contents for a new document's entries in one
// step. The previous entries are discarded only after the new set is
// validated, so a rejected replacement leaves the index untouched.
func (ix *Index) Replace(entries []Entry) error {
	dim := 0
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %d", ErrEmptyVector, i)
		}
		if dim == 0 {
			dim = len(e.Vector)
		} else if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(e.Vector), dim)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = entries
	ix.dim = dim
	return nil
}

// Search returns up to k entries ranked by cosine similarity to the query
// vector, highest first. Ties break toward the earlier chunk. Searching an
// empty index returns no results and no error.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(query), ix.dim)
	}

	results := make([]Result, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, Result{
			Ordinal: e.Ordinal,
			Text:    e.Text,
			Score:   cosineSimilarity(query, e.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Ordinal < results[j].Ordinal
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Clear removes all entries.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.dim = 0
}

// cosineSimilarity computes the cosine of the angle between two vectors of
// equal length. A zero vector yields a score of 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
