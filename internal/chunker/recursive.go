package chunker

import (
	"errors"
	"strings"
)

// TokenCounter is the sizing dependency of the chunker. Counts must be
// consistent with Encode/Decode so overlap math lines up.
type TokenCounter interface {
	Count(text string) int
	Encode(text string) []int
	Decode(ids []int) string
}

// DefaultSeparators is the boundary hierarchy tried in order: paragraph
// break, line break, sentence end, word boundary, and finally single
// characters as the guaranteed terminal case.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Recursive splits text into token-bounded chunks, preferring natural
// boundaries. Pieces that exceed the budget on a coarse separator are
// re-split with the next finer one; recursion depth is bounded by the
// length of the separator hierarchy.
type Recursive struct {
	size       int
	overlap    int
	separators []string
	counter    TokenCounter
}

// NewRecursive builds a chunker with the given token budget and overlap.
// An overlap at or above the budget is allowed; it is clamped implicitly
// by the tokens available in the preceding chunk.
func NewRecursive(counter TokenCounter, size, overlap int, separators ...string) (*Recursive, error) {
	if counter == nil {
		return nil, errors.New("chunker: token counter is required")
	}
	if size <= 0 {
		return nil, errors.New("chunker: chunk size must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("chunker: chunk overlap cannot be negative")
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Recursive{size: size, overlap: overlap, separators: separators, counter: counter}, nil
}

// Split returns the ordered chunks for text. Empty or whitespace-only
// input yields no chunks. A chunk may exceed the nominal budget when a
// single atomic piece cannot be split any finer; callers must tolerate
// that.
func (r *Recursive) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if r.counter.Count(text) <= r.size {
		return []string{text}
	}
	return r.split(text, r.separators)
}

func (r *Recursive) split(text string, separators []string) []string {
	sep := separators[0]
	rest := separators[1:]

	var pieces []string
	if sep == "" {
		// Character-level last resort; splits on rune boundaries.
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	current := ""
	for _, piece := range pieces {
		candidate := strings.TrimSpace(piece)
		if current != "" {
			candidate = strings.TrimSpace(current + sep + piece)
		}
		if r.counter.Count(candidate) <= r.size {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		trimmed := strings.TrimSpace(piece)
		if r.counter.Count(trimmed) > r.size && len(rest) > 0 {
			chunks = append(chunks, r.split(trimmed, rest)...)
			current = ""
		} else {
			// No finer separator left: carry the piece as-is, even if
			// it is over budget.
			current = trimmed
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	if r.overlap > 0 && len(chunks) > 1 {
		chunks = r.applyOverlap(chunks)
	}
	return chunks
}

// applyOverlap prepends the trailing overlap tokens of each chunk to its
// successor so adjacent chunks share boundary context.
func (r *Recursive) applyOverlap(chunks []string) []string {
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := r.counter.Encode(chunks[i-1])
		n := r.overlap
		if n > len(prev) {
			n = len(prev)
		}
		tail := r.counter.Decode(prev[len(prev)-n:])
		out[i] = strings.TrimSpace(tail + " " + chunks[i])
	}
	return out
}
