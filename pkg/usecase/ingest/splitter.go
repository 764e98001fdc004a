package ingest

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 120
)

// DefaultSeparators prefer section and chapter boundaries of legal and policy documents
var DefaultSeparators = []string{
	"\n\nSECTION",
	"\n\nSection",
	"\n\nCHAPTER",
	"\n\n",
	"\n",
	". ",
}

// Splitter cuts text into chunks of at most Size characters. It tries the
// separators in order, recursing into pieces that are still too long, and
// carries up to Overlap characters of trailing context into the next chunk.
// Separators stay attached to the start of the piece that follows them.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter() *Splitter {
	return &Splitter{
		Size:       DefaultChunkSize,
		Overlap:    DefaultChunkOverlap,
		Separators: DefaultSeparators,
	}
}

// Split returns the chunks of text in document order. A Size below 1 falls
// back to DefaultChunkSize and an Overlap outside [0, Size) is dropped.
func (s *Splitter) Split(text string) []string {
	n := s.normalized()
	return n.split(text, n.Separators)
}

func (s *Splitter) normalized() *Splitter {
	n := *s
	if n.Size < 1 {
		n.Size = DefaultChunkSize
	}
	if n.Overlap < 0 || n.Overlap >= n.Size {
		n.Overlap = 0
	}
	return &n
}

func (s *Splitter) split(text string, separators []string) []string {
	sep, rest := "", []string(nil)
	for i, c := range separators {
		if strings.Contains(text, c) {
			sep, rest = c, separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeep(text, sep) {
		if length(piece) <= s.Size {
			pending = append(pending, piece)
			continue
		}

		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}

	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}

	return chunks
}

func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	flush := func() {
		if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
			chunks = append(chunks, c)
		}
	}

	for _, p := range pieces {
		n := length(p)
		if total+n > s.Size && len(current) > 0 {
			flush()
			for len(current) > 0 && (total > s.Overlap || total+n > s.Size) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	flush()

	return chunks
}

// splitKeep splits text on sep keeping sep at the start of each following piece.
// An empty sep splits into single characters.
func splitKeep(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
