package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/apierr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("load: %w", domainerrs.ErrNotFound), http.StatusNotFound},
		{domainerrs.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("x: %w", domainerrs.ErrLimitExceeded), http.StatusForbidden},
		{domainerrs.ErrUnsupportedType, http.StatusBadRequest},
		{domainerrs.ErrNoMaterials, http.StatusBadRequest},
		{domainerrs.ErrInvalidArgument, http.StatusBadRequest},
		{domainerrs.ErrMalformedResponse, http.StatusBadGateway},
		{domainerrs.ErrGenerationFailure, http.StatusBadGateway},
		{domainerrs.ErrEmbeddingFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
		{apierr.New(http.StatusTeapot, "teapot", domainerrs.ErrNotFound), http.StatusTeapot},
	}
	for _, tc := range cases {
		if got, _ := Classify(tc.err); got != tc.status {
			t.Fatalf("Classify(%v): want=%d got=%d", tc.err, tc.status, got)
		}
	}
}

func TestRespondServiceErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "internal server error" || env.Error.Code != "internal" {
		t.Fatalf("envelope: %+v", env)
	}
}
