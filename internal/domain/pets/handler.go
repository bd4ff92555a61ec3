package pets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption-market/internal/domain/users"
	"pet-adoption-market/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// CounterReconciler repara el contador de applicants antes de exponer
// una mascota a un lector. Lo implementa *adoptions.Service; se declara
// acá para evitar el ciclo pets <-> adoptions.
type CounterReconciler interface {
	Reconcile(ctx context.Context, petID string) (Pet, error)
}

func RegisterRoutes(r chi.Router, svc *Service, rec CounterReconciler, usersSvc *users.Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", publishPetHandler(svc))
		pr.Get("/", listPetsHandler(svc, rec, usersSvc))
		pr.Get("/{petID}", getPetHandler(rec, usersSvc))
		pr.Delete("/{petID}", cancelPublicationHandler(svc))
	})

	// Publicaciones propias (owner)
	r.Get("/me/pets", listMyPetsHandler(svc, rec, usersSvc))
}

type publishPetRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Breed        string   `json:"breed"`
	Age          int      `json:"age"`
	Gender       string   `json:"gender"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	Images       []string `json:"images"`
	Medical      struct {
		Vaccinated   bool   `json:"vaccinated"`
		Sterilized   bool   `json:"sterilized"`
		HealthStatus string `json:"health_status"`
	} `json:"medical"`
}

type medicalResponse struct {
	Vaccinated   bool   `json:"vaccinated"`
	Sterilized   bool   `json:"sterilized"`
	HealthStatus string `json:"health_status"`
}

type ownerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type petResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Breed        string          `json:"breed,omitempty"`
	Age          int             `json:"age"`
	Gender       string          `json:"gender"`
	Description  string          `json:"description,omitempty"`
	Requirements string          `json:"requirements,omitempty"`
	Images       []string        `json:"images"`
	Medical      medicalResponse `json:"medical"`
	Status       string          `json:"status"`
	Applicants   int             `json:"applicants"`
	Owner        ownerResponse   `json:"owner"`
	CreatedAt    time.Time       `json:"created_at"`
}

func publishPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		var req publishPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		p, err := svc.Publish(r.Context(), claims.UserID, PublishInput{
			Name:         req.Name,
			Type:         req.Type,
			Breed:        req.Breed,
			Age:          req.Age,
			Gender:       req.Gender,
			Description:  req.Description,
			Requirements: req.Requirements,
			Images:       req.Images,
			Medical: Medical{
				Vaccinated:   req.Medical.Vaccinated,
				Sterilized:   req.Medical.Sterilized,
				HealthStatus: req.Medical.HealthStatus,
			},
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// El dueño recién publica: el summary sale de su propio perfil.
		writeJSON(w, http.StatusCreated, toPetResponse(p, ownerResponse{ID: claims.UserID}))
	}
}

func listPetsHandler(svc *Service, rec CounterReconciler, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := ListFilter{
			Type:   PetType(strings.TrimSpace(r.URL.Query().Get("type"))),
			Status: Status(strings.TrimSpace(r.URL.Query().Get("status"))),
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}

		writeJSON(w, http.StatusOK, toPetList(r.Context(), items, rec, usersSvc))
	}
}

func getPetHandler(rec CounterReconciler, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")

		// Reconciliar ANTES de construir la respuesta (lazy self-heal).
		p, err := rec.Reconcile(r.Context(), petID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p, ownerSummary(r.Context(), usersSvc, p.OwnerUserID)))
	}
}

func cancelPublicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		petID := chi.URLParam(r, "petID")
		if err := svc.CancelPublication(r.Context(), petID, claims.UserID); err != nil {
			if errors.Is(err, ErrBadState) {
				writeError(w, http.StatusUnprocessableEntity, "invalid_operation",
					"pet has a pending application and cannot be withdrawn")
				return
			}
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listMyPetsHandler(svc *Service, rec CounterReconciler, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}

		writeJSON(w, http.StatusOK, toPetList(r.Context(), items, rec, usersSvc))
	}
}

func toPetList(ctx context.Context, items []Pet, rec CounterReconciler, usersSvc *users.Service) []petResponse {
	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		// Reconcilia por mascota; si falla, sirve el valor cacheado
		// (mejor respuesta levemente stale que 500 en un listado).
		if fixed, err := rec.Reconcile(ctx, p.ID); err == nil {
			p = fixed
		}
		out = append(out, toPetResponse(p, ownerSummary(ctx, usersSvc, p.OwnerUserID)))
	}
	return out
}

func ownerSummary(ctx context.Context, usersSvc *users.Service, ownerID string) ownerResponse {
	s, err := usersSvc.Summary(ctx, ownerID)
	if err != nil {
		// Perfil aún no creado: exponemos solo el id.
		return ownerResponse{ID: ownerID}
	}
	return ownerResponse{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Phone:       s.Phone,
		Address:     s.Address,
	}
}

func toPetResponse(p Pet, owner ownerResponse) petResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return petResponse{
		ID:           p.ID,
		Name:         p.Name,
		Type:         string(p.Type),
		Breed:        p.Breed,
		Age:          p.Age,
		Gender:       string(p.Gender),
		Description:  p.Description,
		Requirements: p.Requirements,
		Images:       images,
		Medical: medicalResponse{
			Vaccinated:   p.Medical.Vaccinated,
			Sterilized:   p.Medical.Sterilized,
			HealthStatus: p.Medical.HealthStatus,
		},
		Status:     string(p.Status),
		Applicants: p.Applicants,
		Owner:      owner,
		CreatedAt:  p.CreatedAt,
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
		writeError(w, http.StatusNotFound, "not_found", "pet not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not permitted")
	case errors.Is(err, ErrBadState):
		writeError(w, http.StatusUnprocessableEntity, "invalid_operation", "operation not allowed in current state")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeJSON está duplicado intencionalmente en los handlers de cada
// módulo (pets/adoptions/users) para no crear helpers compartidos antes
// de tiempo; si aparece un cuarto módulo conviene extraerlo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
