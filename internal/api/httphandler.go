package api

import (
	"errors"
	"net/http"
	"pnoti/internal/pending"
	"pnoti/internal/types"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	DeviceIDParam  = "deviceId"
	ServiceIDParam = "serviceId"
	OffsetParam    = "offset"
	CountParam     = "count"
)

type Handler struct {
	Svc *pending.Service
}

func NewHandler(svc *pending.Service) *Handler {
	return &Handler{Svc: svc}
}

// Router registers the notification and helper routes and wraps them in the middleware chain.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", h.handleListPending)
	mux.HandleFunc("GET /notifications/{deviceId}", h.handleGetForDevice)
	mux.HandleFunc("GET /notifications/{deviceId}/{serviceId}", h.handleGetForDeviceAndService)
	mux.HandleFunc("POST /notifications/{deviceId}", h.handleCreate)
	mux.HandleFunc("POST /notifications/{deviceId}/{serviceId}", h.handleCreate)
	mux.HandleFunc("DELETE /notifications/{deviceId}", h.handleDelete)
	mux.HandleFunc("DELETE /notifications/{deviceId}/{serviceId}", h.handleDelete)

	mux.HandleFunc("GET /pending", handleHelp)
	mux.HandleFunc("GET /pending/version", handleVersion)
	mux.HandleFunc("GET /pending/status", handleStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return withMiddleware(mux)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	offset, err := intQuery(r, OffsetParam, types.DefaultOffset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count, err := intQuery(r, CountParam, types.DefaultCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.Svc.ListPending(r.Context(), offset, count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, list)
}

func (h *Handler) handleGetForDevice(w http.ResponseWriter, r *http.Request) {
	set, found, err := h.Svc.GetForDevice(r.Context(), r.PathValue(DeviceIDParam))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ids := set.Sorted()
	if wantsXML(r) {
		writeBody(w, r, http.StatusOK, types.ServiceValues{Values: ids})
		return
	}
	writeBody(w, r, http.StatusOK, ids)
}

func (h *Handler) handleGetForDeviceAndService(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Svc.GetForDeviceAndService(r.Context(), r.PathValue(DeviceIDParam), r.PathValue(ServiceIDParam))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleCreate serves both create routes; on the device-only route serviceId is empty.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Create(r.Context(), r.PathValue(DeviceIDParam), r.PathValue(ServiceIDParam)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue(DeviceIDParam), r.PathValue(ServiceIDParam)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, types.Err(types.ErrInvalidArgument, nil, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// statusFor maps facade errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	entry := log.WithError(err).WithFields(log.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"status":    code,
		"requestId": w.Header().Get(RequestIDHeader),
	})
	if code == http.StatusBadRequest {
		entry.Info("rejected request")
		http.Error(w, err.Error(), code)
		return
	}
	entry.Error("request failed")
	http.Error(w, http.StatusText(code), code)
}
