package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" a=1 , bad, =x, b = two ,c=")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "two" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "3")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("ratio: want=1 got=%v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	if got := sampleRatio(); got != 0 {
		t.Fatalf("ratio: want=0 got=%v", got)
	}
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	if id := TraceIDFromContext(context.Background()); id != "" {
		t.Fatalf("expected empty trace id, got=%q", id)
	}
}
