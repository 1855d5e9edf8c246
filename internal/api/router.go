package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Router собирает все маршруты API. /api/login — единственный
// публичный, остальное за сессией; админ-ветки — за флагом.
func (h *Handler) Router(log *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Logging(log), Recoverer(log))

	r.HandleFunc("/api/login", h.login).Methods(http.MethodPost)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(h.Authenticate)

	authed.HandleFunc("/logout", h.logout).Methods(http.MethodPost)

	authed.HandleFunc("/scan", h.scan).Methods(http.MethodPost)
	authed.HandleFunc("/shipments", h.createShipment).Methods(http.MethodPost)
	authed.HandleFunc("/shipments", h.listShipments).Methods(http.MethodGet)
	authed.HandleFunc("/shipments/export", h.exportXLSX).Methods(http.MethodGet)
	authed.HandleFunc("/shipments/export.csv", h.exportCSV).Methods(http.MethodGet)
	authed.HandleFunc("/shipments/push", h.pushSheet).Methods(http.MethodPost)
	authed.HandleFunc("/shipments/{qr}", h.getShipment).Methods(http.MethodGet)
	authed.HandleFunc("/shipments/{qr}/status", h.updateStatus).Methods(http.MethodPatch)
	authed.HandleFunc("/shipments/id/{id:[0-9]+}", h.editShipment).Methods(http.MethodPut)

	authed.HandleFunc("/audit", h.auditLog).Methods(http.MethodGet)
	authed.HandleFunc("/suppliers", h.listSuppliers).Methods(http.MethodGet)

	admin := authed.NewRoute().Subrouter()
	admin.Use(h.RequireAdmin)

	admin.HandleFunc("/suppliers", h.addSupplier).Methods(http.MethodPost)
	admin.HandleFunc("/suppliers/{id:[0-9]+}", h.updateSupplier).Methods(http.MethodPut)
	admin.HandleFunc("/suppliers/{id:[0-9]+}", h.deleteSupplier).Methods(http.MethodDelete)
	admin.HandleFunc("/suppliers/{id:[0-9]+}/restore", h.restoreSupplier).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.setUser).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)

	return r
}
