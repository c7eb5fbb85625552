package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Message: message, Code: code}}); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondRepoError maps repository sentinels onto HTTP statuses.
func (s *Server) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "product not found", "NOT_FOUND")
	case errors.Is(err, catalog.ErrInvalidName):
		s.respondError(w, http.StatusBadRequest, "product name is required", "INVALID_NAME")
	default:
		s.logger.Error("repository error", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body", "BAD_JSON")
		return false
	}
	return true
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	products, err := s.repo.GetAll(r.Context())
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	s.respondData(w, http.StatusOK, products)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	s.respondData(w, http.StatusOK, p)
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=pending processing completed error"`
	Source      string `json:"source" validate:"omitempty,oneof=manual excel"`
}

// createPatch builds the follow-up update for optional create fields. A
// description supplied at create time keeps the created status rather than
// triggering the completion rule, unless the request names a status itself.
func createPatch(req createProductRequest, created models.ProductStatus) models.ProductUpdate {
	var upd models.ProductUpdate
	if req.Description != "" {
		upd.Description = &req.Description
	}
	if req.Status != "" {
		st := models.ProductStatus(req.Status)
		upd.Status = &st
	}
	if upd.Description != nil && upd.Status == nil {
		st := created
		upd.Status = &st
	}
	return upd
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		msg := "invalid product payload"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Name" {
			msg = "product name is required"
		}
		s.respondError(w, http.StatusBadRequest, msg, "VALIDATION")
		return
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}

	p, err := s.repo.Create(r.Context(), req.Name, req.Source)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}

	if upd := createPatch(req, p.Status); !upd.Empty() {
		p, err = s.repo.Update(r.Context(), p.ID, upd)
		if err != nil {
			s.respondRepoError(w, err)
			return
		}
	}
	s.respondData(w, http.StatusCreated, p)
}

type batchCreateRequest struct {
	Products []createProductRequest `json:"products" validate:"required,min=1,dive"`
}

func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		msg := "products must be a non-empty array"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Name" {
					msg = "product name is required"
					break
				}
			}
		}
		s.respondError(w, http.StatusBadRequest, msg, "VALIDATION")
		return
	}

	names := make([]string, len(req.Products))
	source := ""
	for i, item := range req.Products {
		names[i] = item.Name
		if source == "" && item.Source != "" {
			source = item.Source
		}
	}
	if source == "" {
		source = models.SourceManual
	}

	created, err := s.repo.BatchCreate(r.Context(), names, source)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}

	// Created rows correspond, in order, to the valid-name subset of the
	// request; zip them to honor per-item description/status.
	idx := 0
	for _, item := range req.Products {
		if !models.ValidName(item.Name) || idx >= len(created) {
			continue
		}
		if upd := createPatch(item, created[idx].Status); !upd.Empty() {
			p, err := s.repo.Update(r.Context(), created[idx].ID, upd)
			if err != nil {
				s.respondRepoError(w, err)
				return
			}
			created[idx] = p
		}
		idx++
	}
	s.respondData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var upd models.ProductUpdate
	if !s.decode(w, r, &upd) {
		return
	}
	if upd.Status != nil && !upd.Status.Valid() {
		s.respondError(w, http.StatusBadRequest, "invalid status", "VALIDATION")
		return
	}
	if upd.Name != nil && !models.ValidName(*upd.Name) {
		s.respondError(w, http.StatusBadRequest, "name must be non-empty", "VALIDATION")
		return
	}

	p, err := s.repo.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	s.respondData(w, http.StatusOK, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondRepoError(w, err)
		return
	}
	s.respondData(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
}

// handleHealth writes the health body bare, without the API envelope.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Timestamp: time.Now()}
	status := http.StatusOK

	if s.health != nil {
		resp.Database = s.health.Database()
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			resp.Status = "error"
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondData(w, http.StatusOK, s.collector.Snapshot())
}
