package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

const maxBodySize = 64 << 10

// InferRequest is the body of POST /api/v1/infer.
// InferRequest 是 POST /api/v1/infer 的请求体。
type InferRequest struct {
	Label       string  `json:"label"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Hydrogen    float64 `json:"hydrogen"`
	Pressure    float64 `json:"pressure"`
}

// Vector returns the readings in pipeline order.
func (req InferRequest) Vector() normalizer.FeatureVector {
	return normalizer.NewFeatureVector(req.Temperature, req.Humidity, req.CO2, req.Hydrogen, req.Pressure)
}

// writeJSON encodes v before the status line is sent, so an encoding
// failure still answers 500 with a body.
// writeJSON 先编码再写状态码，编码失败时返回 500。
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Get(nil).Errorf("❌ Encode response: %v", err)
		buf.Reset()
		code = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Get(nil).Debugf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

// handleInfer runs one cycle. An engine failure answers 502 with the
// partial report; bad readings answer 422.
// handleInfer 执行一次周期，引擎失败返回 502，读数错误返回 422。
func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req InferRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Label == "" {
		req.Label = "api"
	}

	rep, err := s.svc.Cycle(r.Context(), req.Label, req.Vector())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case fserrors.IsInvocation(err):
		writeJSON(w, http.StatusBadGateway, rep)
	case errors.Is(err, fserrors.ErrInvalidReading):
		writeJSON(w, http.StatusUnprocessableEntity, rep)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
