package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
	"github.com/Trung051/chuyenhang/internal/domain/suppliers"
	"github.com/Trung051/chuyenhang/internal/tracking"
)

// Problem — ответ об ошибке в стиле RFC 7807. Текст для конечного
// пользователя собирает UI, здесь только машинный код и detail.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Title: title, Status: status, Detail: detail})
}

// writeError переводит доменные ошибки в HTTP-статусы.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shipments.ErrNotFound), errors.Is(err, suppliers.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shipments.ErrDuplicateQRCode):
		writeProblem(w, http.StatusConflict, "duplicate_qr_code", err.Error())
	case errors.Is(err, suppliers.ErrDuplicateName):
		writeProblem(w, http.StatusConflict, "duplicate_supplier", err.Error())
	case errors.Is(err, tracking.ErrSameStatus):
		writeProblem(w, http.StatusConflict, "same_status", err.Error())
	case errors.Is(err, shipments.ErrInvalidStatus):
		writeProblem(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, shipments.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, shipments.ErrUnknownSupplier):
		writeProblem(w, http.StatusBadRequest, "unknown_supplier", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "internal", "unexpected server error")
	}
}
