// Package respond writes JSON responses and maps domain errors to HTTP
// status codes without leaking internal details.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"feed-digest/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// ヘッダー送信済みのためログのみ
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// StatusFor maps an error to its HTTP status.
//
//	*entity.ValidationError  400
//	entity.ErrInvalidInput   400
//	entity.ErrUnauthorized   401
//	entity.ErrNotFound       404
//	entity.ErrConflict       409
//	anything else            500
func StatusFor(err error) int {
	switch {
	case entity.IsValidation(err), errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// SafeError writes err with the status from StatusFor. Validation errors
// carry their field message; the other client errors get a fixed text.
// 5xx responses always read "internal server error" and the sanitized
// cause is logged.
func SafeError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	code := StatusFor(err)
	switch code {
	case http.StatusBadRequest:
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			JSON(w, code, map[string]string{"error": ve.Message, "field": ve.Field})
			return
		}
		Error(w, code, "invalid input")
	case http.StatusUnauthorized:
		Error(w, code, "unauthorized")
	case http.StatusNotFound:
		Error(w, code, "not found")
	case http.StatusConflict:
		Error(w, code, "already exists")
	default:
		// 機密情報をマスクしてログ出力
		slog.Default().Error("internal server error",
			slog.Int("code", code),
			slog.String("error", SanitizeError(err)))
		Error(w, code, "internal server error")
	}
}
