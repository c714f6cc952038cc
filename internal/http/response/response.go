package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Classify maps an error from the service layer to a status and code. An
// explicit *apierr.Error wins over the sentinel taxonomy.
func Classify(err error) (int, string) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	switch {
	case errors.Is(err, domainerrs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domainerrs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domainerrs.ErrLimitExceeded):
		return http.StatusForbidden, "limit_exceeded"
	case errors.Is(err, domainerrs.ErrUnsupportedType):
		return http.StatusBadRequest, "unsupported_type"
	case errors.Is(err, domainerrs.ErrNoMaterials):
		return http.StatusBadRequest, "no_materials"
	case errors.Is(err, domainerrs.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domainerrs.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_model_response"
	case errors.Is(err, domainerrs.ErrGenerationFailure):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, domainerrs.ErrEmbeddingFailure):
		return http.StatusBadGateway, "embedding_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// RespondServiceError writes err with its classified status. Messages of
// unclassified errors are not echoed to clients.
func RespondServiceError(c *gin.Context, err error) {
	status, code := Classify(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError && code == "internal" {
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}
