package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Add(HeaderContentType, HeaderValueJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}
	if v, ok := body["statusCode"]; ok {
		w.WriteHeader(v.(int))
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		logger.Error().Err(err).Msgf("failed encoding response body with error=%s", err.Error())
		return
	}
}

// StatusCode maps the pipeline error taxonomy onto the HTTP contract.
// Unknown errors become 500 and their detail never reaches the caller.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrEmptySubject),
		errors.Is(err, inErrors.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrValidation),
		errors.Is(err, inErrors.ErrEmptyCart),
		errors.Is(err, inErrors.ErrIntentRejected),
		errors.Is(err, inErrors.ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	statusCode := StatusCode(err)
	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		message = "Internal Server Error"
	}
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "failed",
		"statusCode": statusCode,
		"error":      inErrors.Kind(err),
		"message":    message,
	})
}
