package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
	"github.com/Trung051/chuyenhang/internal/domain/suppliers"
	"github.com/Trung051/chuyenhang/internal/domain/users"
	"github.com/Trung051/chuyenhang/internal/export"
	"github.com/Trung051/chuyenhang/internal/infra/metrics"
	"github.com/Trung051/chuyenhang/internal/qr"
	"github.com/Trung051/chuyenhang/internal/tracking"
)

// Pusher — выгрузка реестра во внешнюю таблицу, сбой не фатален.
type Pusher interface {
	Push(list []shipments.Shipment, appendMode bool) export.Result
}

type Handler struct {
	svc        *tracking.Service
	suppliers  suppliers.Store
	users      users.Store
	sessions   *SessionStore
	pusher     Pusher
	imgDecoder qr.ImageDecoder // nil, если распознавалка не подключена
	log        *slog.Logger
}

func NewHandler(svc *tracking.Service, sup suppliers.Store, us users.Store,
	sessions *SessionStore, pusher Pusher, imgDecoder qr.ImageDecoder, log *slog.Logger) *Handler {
	return &Handler{svc: svc, suppliers: sup, users: us, sessions: sessions,
		pusher: pusher, imgDecoder: imgDecoder, log: log}
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

/*** AUTH ***/

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	u, err := h.users.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, err)
		return
	}
	if u == nil || !users.VerifyPassword(u.PasswordHash, req.Password) {
		writeProblem(w, http.StatusUnauthorized, "unauthorized", "wrong username or password")
		return
	}

	sess := h.sessions.Create(u.Username, u.Admin)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":    sess.Token,
		"username": sess.Username,
		"is_admin": sess.Admin,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(currentSession(r).Token)
	w.WriteHeader(http.StatusNoContent)
}

/*** SCAN & LIFECYCLE ***/

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw   string `json:"raw"`
		Image string `json:"image"` // base64, если клиент шлёт фото вместо текста
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	raw := req.Raw
	if raw == "" && req.Image != "" {
		if h.imgDecoder == nil {
			writeProblem(w, http.StatusNotImplemented, "image_decode_unavailable", "image decoding is not configured")
			return
		}
		img, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "bad_request", "image is not valid base64")
			return
		}
		raw, err = h.imgDecoder.DecodeImage(r.Context(), img)
		if err != nil {
			if errors.Is(err, qr.ErrNotDetected) {
				writeProblem(w, http.StatusUnprocessableEntity, "qr_not_detected", "no QR code detected in image")
				return
			}
			writeError(w, err)
			return
		}
	}

	res, err := h.svc.Scan(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]any{"found": res.Found, "payload": res.Payload}
	if res.Shipment != nil {
		out["shipment"] = toShipmentDTO(res.Shipment)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createShipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRCode     string `json:"qr_code"`
		IMEI       string `json:"imei"`
		DeviceName string `json:"device_name"`
		Capacity   string `json:"capacity"`
		Supplier   string `json:"supplier"`
		Notes      string `json:"notes"`
		ImageURL   string `json:"image_url"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	sh, err := h.svc.Create(r.Context(), shipments.CreateParams{
		QRCode:     strings.TrimSpace(req.QRCode),
		IMEI:       strings.TrimSpace(req.IMEI),
		DeviceName: strings.TrimSpace(req.DeviceName),
		Capacity:   strings.TrimSpace(req.Capacity),
		Supplier:   req.Supplier,
		CreatedBy:  currentSession(r).Username,
		Notes:      req.Notes,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShipmentDTO(sh))
}

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	status := q.Get("status")
	supplier := q.Get("supplier")
	search := strings.ToLower(q.Get("q"))

	filtered := list[:0]
	for _, s := range list {
		if status != "" && string(s.Status) != status {
			continue
		}
		if supplier != "" && s.Supplier != supplier {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.QRCode), search) {
			continue
		}
		filtered = append(filtered, s)
	}
	writeJSON(w, http.StatusOK, toShipmentDTOs(filtered))
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := h.svc.Get(r.Context(), mux.Vars(r)["qr"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShipmentDTO(sh))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	res, err := h.svc.ChangeStatus(r.Context(), mux.Vars(r)["qr"],
		shipments.Status(req.Status), currentSession(r).Username, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]any{"shipment": toShipmentDTO(res.Shipment)}
	if res.NotifyErr != nil {
		out["notify_error"] = res.NotifyErr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) editShipment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid shipment id")
		return
	}

	var req struct {
		QRCode       string `json:"qr_code"`
		IMEI         string `json:"imei"`
		DeviceName   string `json:"device_name"`
		Capacity     string `json:"capacity"`
		Supplier     string `json:"supplier"`
		Status       string `json:"status"`
		Notes        string `json:"notes"`
		ImageURL     string `json:"image_url"`
		ImageChanged bool   `json:"image_changed"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	res, err := h.svc.Edit(r.Context(), shipments.UpdateParams{
		ID:         id,
		QRCode:     strings.TrimSpace(req.QRCode),
		IMEI:       strings.TrimSpace(req.IMEI),
		DeviceName: strings.TrimSpace(req.DeviceName),
		Capacity:   strings.TrimSpace(req.Capacity),
		Supplier:   req.Supplier,
		Status:     shipments.Status(req.Status),
		Notes:      req.Notes,
		UpdatedBy:  currentSession(r).Username,
		ImageURL:   req.ImageURL,
	}, req.ImageChanged)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]any{"shipment": toShipmentDTO(res.Shipment)}
	if res.NotifyErr != nil {
		out["notify_error"] = res.NotifyErr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

/*** EXPORT ***/

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.Workbook(list)
	if err != nil {
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("shipments_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.CSV(list)
	if err != nil {
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("shipments_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}

func (h *Handler) pushSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Append bool `json:"append"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	res := h.pusher.Push(list, req.Append)
	if res.Success {
		metrics.SheetPushes.WithLabelValues("ok").Inc()
	} else {
		metrics.SheetPushes.WithLabelValues("error").Inc()
		h.log.Error("sheet push failed", "reqid", GetRequestID(r), "msg", res.Message)
	}
	writeJSON(w, http.StatusOK, res)
}

/*** AUDIT ***/

func (h *Handler) auditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.svc.AuditLog(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTOs(list))
}

/*** ADMIN: SUPPLIERS ***/

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	var (
		list []suppliers.Supplier
		err  error
	)
	if r.URL.Query().Get("all") == "true" {
		list, err = h.suppliers.ListAll(r.Context())
	} else {
		list, err = h.suppliers.ListActive(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierDTOs(list))
}

func (h *Handler) addSupplier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
		Address string `json:"address"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeProblem(w, http.StatusBadRequest, "validation", "name is required")
		return
	}

	s, err := h.suppliers.Add(r.Context(), strings.TrimSpace(req.Name), req.Contact, req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplierDTO(*s))
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid supplier id")
		return
	}

	var req supplierDTO
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	if err := h.suppliers.Update(r.Context(), suppliers.Supplier{
		ID: id, Name: req.Name, Contact: req.Contact, Address: req.Address, Active: req.Active,
	}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid supplier id")
		return
	}
	// мягкое удаление: строка остаётся ради старых отправок
	if err := h.suppliers.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restoreSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid supplier id")
		return
	}
	if err := h.suppliers.Restore(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/*** ADMIN: USERS ***/

func (h *Handler) setUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Admin    bool   `json:"is_admin"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeProblem(w, http.StatusBadRequest, "validation", "username and password are required")
		return
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Set(r.Context(), req.Username, hash, req.Admin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": u.Username, "is_admin": u.Admin})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, len(list))
	for i, u := range list {
		out[i] = map[string]any{"id": u.ID, "username": u.Username, "is_admin": u.Admin}
	}
	writeJSON(w, http.StatusOK, out)
}
