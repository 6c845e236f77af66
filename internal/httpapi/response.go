// Package httpapi exposes the canteen core over REST and websocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"canteen-be/internal/inventory"
	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/order"
	"canteen-be/internal/pickup"
	"canteen-be/internal/user"

	"go.uber.org/zap"
)

// successBody is the envelope of every 2xx response.
type successBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successBody{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, successBody{Success: true, Data: data, Message: msg})
}

// writeError maps a domain error onto an HTTP status and stable error
// code. Unrecognized errors become opaque 500s so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}

	writeJSON(w, status, errorBody{Success: false, Error: msg, Code: code})
}

func classify(err error) (int, string) {
	var stockErr *inventory.InsufficientStockError
	var notFoundErr *inventory.ItemsNotFoundError

	switch {
	case errors.Is(err, order.ErrEmptyOrder):
		return http.StatusBadRequest, "EMPTY_ORDER"
	case errors.Is(err, order.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS"
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, order.ErrAlreadyFulfilled):
		return http.StatusConflict, "ALREADY_FULFILLED"
	case errors.Is(err, order.ErrAlreadyCancelled):
		return http.StatusConflict, "ALREADY_CANCELLED"
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, "ORDER_NOT_FOUND"
	case errors.As(err, &stockErr):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "ITEMS_NOT_FOUND"
	case errors.Is(err, pickup.ErrMalformedToken):
		return http.StatusBadRequest, "MALFORMED_TOKEN"
	case errors.Is(err, pickup.ErrSignatureMismatch):
		return http.StatusBadRequest, "SIGNATURE_MISMATCH"
	case errors.Is(err, menu.ErrItemNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND"
	case errors.Is(err, menu.ErrMissingFields),
		errors.Is(err, menu.ErrInvalidPrice),
		errors.Is(err, menu.ErrInvalidCount):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, user.ErrMissingFields),
		errors.Is(err, user.ErrPasswordTooShort):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"
	}
	return http.StatusInternalServerError, "INTERNAL"
}
