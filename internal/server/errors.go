package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
)

type errorBody struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Details *apperr.Details `json:"details,omitempty"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated:   http.StatusUnauthorized,
	apperr.KindAccountInactive:   http.StatusForbidden,
	apperr.KindPermissionDenied:  http.StatusForbidden,
	apperr.KindTenantMismatch:    http.StatusForbidden,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindValidationFailed:  http.StatusBadRequest,
	apperr.KindIntegrityConflict: http.StatusConflict,
}

// statusKind names the errors raised by echo itself (routing, body limit,
// rate limiting) in the same vocabulary as domain errors.
func statusKind(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindValidationFailed.String()
	case http.StatusUnauthorized:
		return apperr.KindUnauthenticated.String()
	case http.StatusForbidden:
		return apperr.KindPermissionDenied.String()
	case http.StatusNotFound:
		return apperr.KindNotFound.String()
	case http.StatusConflict:
		return apperr.KindIntegrityConflict.String()
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= http.StatusInternalServerError {
		return apperr.KindInternal.String()
	}
	return "request_failed"
}

func toResponse(err error) (int, errorBody) {
	if appErr, ok := apperr.As(err); ok {
		status, known := kindStatus[appErr.Kind]
		if !known {
			return http.StatusInternalServerError, errorBody{Kind: apperr.KindInternal.String(), Message: "internal server error"}
		}
		body := errorBody{Kind: appErr.Kind.String(), Message: appErr.Message}
		if !appErr.Details.Empty() {
			body.Details = appErr.Details
		}
		return status, body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, errorBody{Kind: statusKind(he.Code), Message: msg}
	}

	return http.StatusInternalServerError, errorBody{Kind: apperr.KindInternal.String(), Message: "internal server error"}
}

// errorHandler renders every error returned by a handler or middleware as
// JSON. Internal error messages are never sent to the client.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := toResponse(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	}

	resp := errorResponse{
		Error:     body,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to write error response")
	}
}
