package adoptions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption-market/internal/domain/history"
	"pet-adoption-market/internal/domain/pets"
	"pet-adoption-market/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, histSvc *history.Service) {
	// Solicitudes anidadas bajo la mascota
	r.Route("/pets/{petID}/applications", func(ar chi.Router) {
		ar.Post("/", createApplicationHandler(svc))
		ar.Get("/", listByPetHandler(svc))
	})

	// Mis solicitudes (applicant)
	r.Get("/me/applications", listMineHandler(svc, petsSvc))

	r.Route("/applications/{applicationID}", func(ar chi.Router) {
		ar.Get("/", getApplicationHandler(svc))
		ar.Post("/cancel", transitionHandler(svc, actionCancel))
		ar.Post("/approve", transitionHandler(svc, actionApprove))
		ar.Post("/reject", transitionHandler(svc, actionReject))

		// Vías administrativas
		ar.Delete("/", deleteApplicationHandler(svc))
		ar.Get("/history", listHistoryHandler(histSvc))
	})
}

type createApplicationRequest struct {
	Reason          string `json:"reason"`
	Experience      string `json:"experience"`
	LivingCondition string `json:"living_condition"`
}

type petSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type applicationResponse struct {
	ID              string      `json:"id"`
	Pet             string      `json:"pet"`
	Applicant       string      `json:"applicant"`
	Reason          string      `json:"reason"`
	Experience      string      `json:"experience"`
	LivingCondition string      `json:"living_condition"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	PetSummary      *petSummary `json:"pet_summary,omitempty"` // solo en listados
}

type historyEntryResponse struct {
	From    string    `json:"from,omitempty"`
	To      string    `json:"to"`
	ActorID string    `json:"actor_id,omitempty"`
	At      time.Time `json:"at"`
}

func createApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		var req createApplicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		a, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), claims.UserID, CreateInput{
			Reason:          req.Reason,
			Experience:      req.Experience,
			LivingCondition: req.LivingCondition,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toApplicationResponse(a, nil))
	}
}

func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"), claims.UserID, claims.Admin)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]applicationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toApplicationResponse(a, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listMineHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		items, err := svc.ListByApplicant(r.Context(), claims.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]applicationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toApplicationResponse(a, expandPet(r.Context(), petsSvc, a.PetID)))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		a, err := svc.Get(r.Context(), chi.URLParam(r, "applicationID"), claims.UserID, claims.Admin)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toApplicationResponse(a, nil))
	}
}

type action string

const (
	actionCancel  action = "cancel"
	actionApprove action = "approve"
	actionReject  action = "reject"
)

func transitionHandler(svc *Service, act action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		id := chi.URLParam(r, "applicationID")

		var (
			a   Application
			err error
		)
		switch act {
		case actionCancel:
			a, err = svc.Cancel(r.Context(), id, claims.UserID)
		case actionApprove:
			a, err = svc.Approve(r.Context(), id, claims.UserID)
		case actionReject:
			a, err = svc.Reject(r.Context(), id, claims.UserID)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toApplicationResponse(a, nil))
	}
}

func deleteApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.Admin {
			writeError(w, http.StatusForbidden, "forbidden", "admin only")
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "applicationID")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listHistoryHandler(histSvc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.Admin {
			writeError(w, http.StatusForbidden, "forbidden", "admin only")
			return
		}

		entries, err := histSvc.ListByApplication(r.Context(), chi.URLParam(r, "applicationID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}

		out := make([]historyEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyEntryResponse{
				From:    e.From,
				To:      e.To,
				ActorID: e.ActorID,
				At:      e.At,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func expandPet(ctx context.Context, petsSvc *pets.Service, petID string) *petSummary {
	p, err := petsSvc.GetByID(ctx, petID)
	if err != nil {
		return nil
	}
	return &petSummary{
		ID:     p.ID,
		Name:   p.Name,
		Type:   string(p.Type),
		Status: string(p.Status),
	}
}

func toApplicationResponse(a Application, pet *petSummary) applicationResponse {
	return applicationResponse{
		ID:              a.ID,
		Pet:             a.PetID,
		Applicant:       a.ApplicantID,
		Reason:          a.Reason,
		Experience:      a.Experience,
		LivingCondition: a.LivingCondition,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		ResolvedAt:      a.ResolvedAt,
		PetSummary:      pet,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeDomainError traduce los errores de dominio a HTTP:
// validation 400, not found 404, forbidden 403, conflict 409,
// invalid operation 422. Códigos estables para que la UI distinga
// "already applied" de "no longer available" sin parsear mensajes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_error", "missing or malformed fields")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not permitted")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "an active application already exists for this pet")
	case errors.Is(err, ErrBadState):
		writeError(w, http.StatusUnprocessableEntity, "invalid_operation", "operation not allowed in current state")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeJSON duplicado a propósito por módulo (ver nota en pets/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
