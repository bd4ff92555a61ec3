package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption-market/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/me", func(mr chi.Router) {
		mr.Get("/", getMeHandler(svc))
		mr.Put("/", upsertMeHandler(svc))
		mr.Post("/rebuild-refs", rebuildRefsHandler(svc))
	})
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type userResponse struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Publications []string  `json:"publications"`
	Applications []string  `json:"applications"`
	CreatedAt    time.Time `json:"created_at"`
}

func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func upsertMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		u, err := svc.UpsertProfile(r.Context(), claims.UserID, ProfileInput{
			DisplayName: req.DisplayName,
			Phone:       req.Phone,
			Address:     req.Address,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func rebuildRefsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		u, err := svc.RebuildRefs(r.Context(), claims.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	pubs := u.Publications
	if pubs == nil {
		pubs = []string{}
	}
	apps := u.Applications
	if apps == nil {
		apps = []string{}
	}
	return userResponse{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		Address:      u.Address,
		Publications: pubs,
		Applications: apps,
		CreatedAt:    u.CreatedAt,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_error", "missing or malformed fields")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "profile not found")
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
