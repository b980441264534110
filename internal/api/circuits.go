package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/ziadkadry99/circuitchat/internal/circuit"
)

// ValidateResponse reports whether pasted circuit JSON is acceptable.
type ValidateResponse struct {
	Valid  bool            `json:"valid"`
	Error  string          `json:"error,omitempty"`
	Report *circuit.Report `json:"report,omitempty"`
}

func handleValidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, ValidateResponse{Error: "circuit JSON is too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, ValidateResponse{Error: err.Error()})
			return
		}

		compact, err := circuit.ValidatePasted(body)
		if err != nil {
			writeJSON(w, http.StatusOK, ValidateResponse{Error: err.Error()})
			return
		}
		resp := ValidateResponse{Valid: true}
		if report, err := circuit.InspectJSON(compact); err == nil {
			resp.Report = &report
		} else {
			resp.Report = &circuit.Report{Warnings: []string{err.Error()}}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleFullAdder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(circuit.FullAdder())
	}
}

func handleDeviceTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, circuit.DeviceTypes())
	}
}
