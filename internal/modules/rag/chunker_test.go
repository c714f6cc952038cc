package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestChunkShortText(t *testing.T) {
	got, err := Chunk("short", 1000, 200)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(got) != 1 || got[0] != "short" {
		t.Fatalf("want [short] got=%q", got)
	}
}

func TestChunkReconstructsAndCounts(t *testing.T) {
	text := strings.Repeat("abcdefghij", 257) + "xyz"
	cases := []struct{ size, overlap int }{
		{1000, 200}, {100, 0}, {7, 3}, {50, 49}, {2573, 10}, {2572, 1},
	}
	for _, tc := range cases {
		chunks, err := Chunk(text, tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("Chunk(%d,%d): %v", tc.size, tc.overlap, err)
		}
		n := len([]rune(text))
		want := 1
		if n > tc.size {
			step := tc.size - tc.overlap
			want = (n - tc.overlap + step - 1) / step
		}
		if len(chunks) != want {
			t.Fatalf("Chunk(%d,%d): count want=%d got=%d", tc.size, tc.overlap, want, len(chunks))
		}

		var b strings.Builder
		for i, c := range chunks {
			r := []rune(c)
			if len(r) > tc.size {
				t.Fatalf("chunk %d longer than size", i)
			}
			if i == 0 {
				b.WriteString(c)
				continue
			}
			b.WriteString(string(r[tc.overlap:]))
		}
		if b.String() != text {
			t.Fatalf("Chunk(%d,%d): reconstruction mismatch", tc.size, tc.overlap)
		}
	}
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)
	chunks, err := Chunk(text, 4, 1)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	for _, c := range chunks {
		if len([]rune(c)) > 4 {
			t.Fatalf("chunk exceeds 4 runes: %q", c)
		}
	}
	if len(chunks) != 3 {
		t.Fatalf("count: want=3 got=%d", len(chunks))
	}
}

func TestChunkRejectsBadConfig(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{10, 10}, {10, 11}, {0, 0}, {10, -1}} {
		if _, err := Chunk("text", tc.size, tc.overlap); !errors.Is(err, ErrInvalidChunkConfig) {
			t.Fatalf("Chunk(%d,%d): want ErrInvalidChunkConfig got=%v", tc.size, tc.overlap, err)
		}
	}
}

func TestChunkEmptyText(t *testing.T) {
	got, err := Chunk("", 10, 2)
	if err != nil || len(got) != 0 {
		t.Fatalf("want no chunks, got=%q err=%v", got, err)
	}
}

func TestChunkWhitespaceIsKept(t *testing.T) {
	for _, text := range []string{"   ", " \n\t "} {
		got, err := Chunk(text, 1000, 200)
		if err != nil {
			t.Fatalf("Chunk(%q): %v", text, err)
		}
		if len(got) != 1 || got[0] != text {
			t.Fatalf("Chunk(%q): want one verbatim chunk got=%q", text, got)
		}
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{1, 0}); got < 0.9999 {
		t.Fatalf("identical: got=%v", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal: got=%v", got)
	}
	if got := cosine([]float32{1}, []float32{1, 0}); got != 0 {
		t.Fatalf("mismatch: got=%v", got)
	}
	if got := cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero norm: got=%v", got)
	}
}
