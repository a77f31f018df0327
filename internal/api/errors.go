package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/store"
	"github.com/Riboost-Studio/pos-device-bridge/internal/transport"
)

type errorBody struct {
	Error string `json:"error"`
}

var errBadRequest = errors.New("malformed request body")

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, model.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrPrinterNotFound):
		return http.StatusNotFound
	case errors.Is(err, transport.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
