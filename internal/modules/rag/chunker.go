package rag

import (
	"errors"
	"fmt"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var ErrInvalidChunkConfig = errors.New("invalid chunk config")

// Chunk splits text into windows of size runes whose starts advance by
// size-overlap. The last window always ends at the end of text, so a text of
// n > size runes yields ceil((n-overlap)/(size-overlap)) chunks and dropping
// the first overlap runes of every chunk after the first reconstructs text.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkConfig, size, overlap)
	}
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	n := len(runes)
	step := size - overlap

	out := make([]string, 0, n/step+1)
	for start := 0; ; start += step {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return out, nil
}
