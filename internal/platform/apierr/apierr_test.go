package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsFindsWrappedError(t *testing.T) {
	base := errors.New("workspace missing")
	err := fmt.Errorf("load: %w", New(http.StatusNotFound, "workspace_not_found", base))

	ae, ok := As(err)
	if !ok {
		t.Fatalf("expected *Error in chain")
	}
	if ae.Status != http.StatusNotFound || ae.Code != "workspace_not_found" {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if !errors.Is(err, base) {
		t.Fatalf("Unwrap should expose the cause")
	}
	if ae.Error() != "workspace missing" {
		t.Fatalf("message: got=%q", ae.Error())
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(http.StatusForbidden, "limit", nil).Error(); got != "limit" {
		t.Fatalf("code fallback: got=%q", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("status fallback: got=%q", got)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("plain error should not match")
	}
}
