package erp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/beergame/supplytwin/chain"
)

// maxBodyBytes bounds a recorded period payload.
const maxBodyBytes = 1 << 20

// Router exposes store under /api/v1.
func Router(store *Store) http.Handler {
	h := &handler{store: store}
	r := mux.NewRouter()
	s := r.PathPrefix("/api/v1").Subrouter()

	s.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	s.HandleFunc("/products/{id}/suppliers", h.getSuppliers).Methods(http.MethodGet)
	s.HandleFunc("/history", h.getHistory).Methods(http.MethodGet)
	s.HandleFunc("/history", h.recordPeriod).Methods(http.MethodPost)
	return logMiddleware(r)
}

type handler struct {
	store *Store
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := h.store.Product(id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, chain.ErrNotFound) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, StatusResponse{Status: statusError, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) getSuppliers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Suppliers(mux.Vars(r)["id"]))
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.HistoricalData(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: statusError, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handler) recordPeriod(w http.ResponseWriter, r *http.Request) {
	var st chain.ChainStatus
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&st); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: statusError, Message: fmt.Sprintf("decode period: %v", err)})
		return
	}
	if err := h.store.RecordPeriod(r.Context(), st); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: statusError, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  statusSuccess,
		Message: fmt.Sprintf("Data for period %d recorded.", st.CurrentStep),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(b); err != nil {
		log.WithField("err", err).Error("write response")
	}
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
