package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lymphos/internal/model"
	"lymphos/internal/platform"
)

// Server exposes the immune service over HTTP. Concurrent callers are safe:
// the store's insert-if-absent is atomic, so two racing requests for the same
// antigen cannot overwrite each other's effort.
type Server struct {
	system *platform.System
}

func NewServer(system *platform.System) (*Server, error) {
	if system == nil {
		return nil, fmt.Errorf("system is required")
	}
	return &Server{system: system}, nil
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/respond", s.handleRespond)
	r.Get("/antibodies", s.handleAntibodies)
	r.Get("/antibodies/{value}", s.handleAntibody)
	return r
}

type respondRequest struct {
	Value *int `json:"value"`
}

type respondResponse struct {
	Value    int  `json:"value"`
	Effort   int  `json:"effort"`
	Recalled bool `json:"recalled"`
}

type errorResponse struct {
	Error string `json:"error"`
	Value *int   `json:"value,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "antigen value must be an integer"})
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "antigen value is required"})
		return
	}

	antibody, err := s.system.Respond(r.Context(), *req.Value)
	if err != nil {
		var invalid *model.InvalidAntigenError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: invalid.Error(), Value: &invalid.Value})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, respondResponse{
		Value:    antibody.Antigen.Value,
		Effort:   antibody.Effort,
		Recalled: antibody.Recalled(),
	})
}

func (s *Server) handleAntibodies(w http.ResponseWriter, r *http.Request) {
	records, err := s.system.Antibodies(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAntibody(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.Atoi(chi.URLParam(r, "value"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "antigen value must be an integer"})
		return
	}

	record, ok, err := s.system.Antibody(r.Context(), value)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("no antibody recorded for antigen %d", value), Value: &value})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
