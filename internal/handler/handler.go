package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusByCode maps domain error codes to HTTP statuses.
var statusByCode = map[string]int{
	model.ErrCodeUnauthorised:      http.StatusUnauthorized,
	model.ErrCodeForbidden:         http.StatusForbidden,
	model.ErrCodeNotFound:          http.StatusNotFound,
	model.ErrCodeInsufficientStock: http.StatusBadRequest,
	model.ErrCodeEmptyCart:         http.StatusBadRequest,
	model.ErrCodeInvalidAddress:    http.StatusBadRequest,
	model.ErrCodeInvalidCoupon:     http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:   http.StatusBadRequest,
	model.ErrCodeInvalidJSON:       http.StatusBadRequest,
	model.ErrCodeMissingField:      http.StatusBadRequest,
	model.ErrCodeInvalidField:      http.StatusBadRequest,
	model.ErrCodeInternalError:     http.StatusInternalServerError,
}

// Options controls response rendering shared by all handlers.
type Options struct {
	// ExposeErrorDetail adds the wrapped error text to error bodies.
	// Only enabled in development.
	ExposeErrorDetail bool
}

// writeJSON writes a JSON response with the given status code. The status is
// already sent when encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes an error body for a request-level failure detected by the
// handler itself.
func writeError(w http.ResponseWriter, domainErr *model.DomainError, logger zerolog.Logger) {
	status := statusByCode[domainErr.Code]
	logger.Debug().Str("error", domainErr.Code).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message}, logger)
}

// responder renders service errors.
type responder struct {
	logger zerolog.Logger
	opts   Options
}

// fail maps err to a status and error body. Errors that are not domain errors
// become INTERNAL_ERROR.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		de = &model.DomainError{
			Code:    model.ErrCodeInternalError,
			Message: "خطای داخلی سرور",
			Err:     err,
		}
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &rs.logger
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("handler error")
	} else {
		logger.Info().Str("error", de.Code).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}

	body := model.ErrorResponse{
		Error:          de.Code,
		Message:        de.Message,
		ProductID:      de.ProductID,
		AvailableStock: de.Available,
	}
	if rs.opts.ExposeErrorDetail && de.Err != nil {
		body.Detail = de.Err.Error()
	}
	writeJSON(w, status, body, *logger)
}

// decodeJSON decodes the request body into dst, writing INVALID_JSON on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Debug().Err(err).Msg("invalid request body")
		writeError(w, model.NewDomainError(model.ErrCodeInvalidJSON, "داده‌های ارسالی معتبر نیست"), logger)
		return false
	}
	return true
}

// pathUUID parses the named path wildcard, writing a 404 when it is not a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string, notFound *model.DomainError, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, notFound, logger)
		return uuid.Nil, false
	}
	return id, true
}
