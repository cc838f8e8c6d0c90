package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/trusttec/cart-service/pkg/errors"
	"github.com/trusttec/cart-service/pkg/logger"
	"github.com/trusttec/cart-service/pkg/validator"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)

	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  vErr.Fields(),
		}})
		return
	}

	status := apperrors.HTTPStatus(err)
	body := errorBody{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(ctx, "request failed", slog.String("error", err.Error()))
	} else {
		log.WarnContext(ctx, "request rejected", slog.String("error", err.Error()))
	}

	respondJSON(w, status, errorResponse{Error: body})
}
