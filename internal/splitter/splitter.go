// Package splitter breaks document text into overlapping chunks sized for
// embedding. It splits on a hierarchy of natural boundaries, trying the
// coarsest first: paragraph breaks, then line breaks, then spaces, then
// individual characters.
package splitter

import (
	"fmt"
	"strings"
)

// Chunk is a bounded-length piece of a document. Ordinal is the chunk's
// position in document order and is preserved end to end through embedding
// and indexing.
type Chunk struct {
	Ordinal int
	Text    string
}

// Splitter produces overlapping chunks of at most chunkSize characters.
// Consecutive chunks share roughly chunkOverlap characters at the seam so
// context survives a cut boundary.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New creates a Splitter. chunkOverlap must be smaller than chunkSize; this
// is validated here so a bad configuration fails before any document is
// processed.
func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)",
			chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}, nil
}

// Split chunks text into ordered, overlapping pieces. Empty or
// whitespace-only text yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	pieces := s.split(text, s.separators)

	var chunks []Chunk
	for _, p := range pieces {
		chunks = append(chunks, Chunk{Ordinal: len(chunks), Text: p})
	}
	return chunks
}

// split recursively divides text on the coarsest separator present, dropping
// to a finer separator only for pieces that still exceed chunkSize.
func (s *Splitter) split(text string, separators []string) []string {
	// Pick the first separator that occurs in the text; "" always matches
	// and splits into individual characters.
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var out []string
	var fitting []string
	for _, piece := range splitOn(text, sep) {
		if len(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting, sep)...)
			fitting = nil
		}
		if len(finer) == 0 {
			// No finer boundary left; emit the oversized piece as-is.
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, finer)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting, sep)...)
	}
	return out
}

// merge greedily joins small pieces into chunks of at most chunkSize
// characters, carrying trailing pieces totalling at most chunkOverlap
// characters into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var docs []string
	var window []string
	total := 0

	for _, piece := range pieces {
		if total+len(piece)+joinLen(sep, len(window)) > s.chunkSize && len(window) > 0 {
			if doc := joinPieces(window, sep); doc != "" {
				docs = append(docs, doc)
			}
			// Shrink the window until the retained tail fits the overlap
			// budget and leaves room for the incoming piece.
			for total > s.chunkOverlap ||
				(total+len(piece)+joinLen(sep, len(window)) > s.chunkSize && total > 0) {
				total -= len(window[0]) + joinLen(sep, len(window)-1)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece) + joinLen(sep, len(window)-1)
	}

	if doc := joinPieces(window, sep); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitOn divides text by sep, dropping empty fragments. An empty separator
// splits into individual characters.
func splitOn(text, sep string) []string {
	var raw []string
	if sep == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, sep)
	}
	out := raw[:0]
	for _, piece := range raw {
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}

// joinLen is the separator cost of appending to a window of n pieces.
func joinLen(sep string, n int) int {
	if n > 0 {
		return len(sep)
	}
	return 0
}
