package adoptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-market/internal/domain/pets"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("duplicate active application")
	ErrBadState     = errors.New("invalid state")
)

var validate = validator.New()

// PetDirectory es la vista que este módulo necesita de pets. La
// implementa *pets.Service; se declara acá para que el grafo de imports
// quede pets <- adoptions (nunca al revés).
type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	SetApplicants(ctx context.Context, petID string, n int) error
}

// Recorder registra transiciones de ciclo de vida (audit trail).
// Best-effort: un fallo acá se loguea y no corta la operación.
// La implementa *history.Service.
type Recorder interface {
	Record(ctx context.Context, applicationID, petID, actorID, from, to string, at time.Time) error
}

type Service struct {
	repo Repository
	pets PetDirectory
	rec  Recorder // puede ser nil (tests, tooling)
	now  func() time.Time
}

func NewService(repo Repository, petDir PetDirectory, rec Recorder) *Service {
	return &Service{
		repo: repo,
		pets: petDir,
		rec:  rec,
		now:  time.Now,
	}
}

type CreateInput struct {
	Reason          string `validate:"required"`
	Experience      string `validate:"required"`
	LivingCondition string `validate:"required"`
}

// Create inserta una solicitud nueva en estado active.
//
// Precondiciones: la mascota existe, el solicitante no es el dueño, la
// mascota está available y no hay otra solicitud active del mismo par.
// El duplicado NO se pre-chequea acá: lo cierra el constraint de
// unicidad parcial en storage y llega como ErrConflict, para que dos
// creates concurrentes no puedan colarse entre check e insert.
func (s *Service) Create(ctx context.Context, petID, applicantID string, in CreateInput) (Application, error) {
	petID = strings.TrimSpace(petID)
	applicantID = strings.TrimSpace(applicantID)
	if petID == "" || applicantID == "" {
		return Application{}, ErrInvalidInput
	}

	in.Reason = strings.TrimSpace(in.Reason)
	in.Experience = strings.TrimSpace(in.Experience)
	in.LivingCondition = strings.TrimSpace(in.LivingCondition)
	if err := validate.Struct(in); err != nil {
		return Application{}, ErrInvalidInput
	}

	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return Application{}, mapPetErr(err)
	}
	if err := pets.CanApply(p, applicantID); err != nil {
		return Application{}, ErrBadState
	}

	now := s.now()
	a := Application{
		ID:              uuid.NewString(),
		PetID:           petID,
		ApplicantID:     applicantID,
		Reason:          in.Reason,
		Experience:      in.Experience,
		LivingCondition: in.LivingCondition,
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Application{}, err
	}

	s.record(ctx, a.ID, petID, applicantID, "", StatusActive, now)
	return a, nil
}

// Cancel retira la solicitud. Solo el solicitante (dueño de la
// SOLICITUD, no de la mascota) puede cancelarla, y solo mientras siga
// active.
func (s *Service) Cancel(ctx context.Context, id, requesterID string) (Application, error) {
	a, err := s.getForUpdate(ctx, id, requesterID)
	if err != nil {
		return Application{}, err
	}
	if a.ApplicantID != requesterID {
		return Application{}, ErrForbidden
	}

	return s.resolve(ctx, a, StatusCancelled, requesterID)
}

// Approve aprueba la solicitud: efecto triple atómico (approved +
// siblings cancelados + mascota adopted). Solo el dueño de la mascota.
// El contador queda stale a propósito; lo repara Reconcile en el
// próximo read (el conteo real después de aprobar es cero).
func (s *Service) Approve(ctx context.Context, id, requesterID string) (Application, error) {
	a, err := s.getForUpdate(ctx, id, requesterID)
	if err != nil {
		return Application{}, err
	}

	p, err := s.pets.GetByID(ctx, a.PetID)
	if err != nil {
		return Application{}, mapPetErr(err)
	}
	if p.OwnerUserID != requesterID {
		return Application{}, ErrForbidden
	}
	if a.Status != StatusActive {
		// "esta solicitud ya no puede aprobarse": un retry sobre una
		// ya aprobada cae acá, sin re-aplicar efectos.
		return Application{}, ErrBadState
	}

	now := s.now()
	cancelled, err := s.repo.Approve(ctx, a.ID, a.PetID, now)
	if err != nil {
		return Application{}, err
	}

	s.record(ctx, a.ID, a.PetID, requesterID, StatusActive, StatusApproved, now)
	for _, sib := range cancelled {
		s.record(ctx, sib, a.PetID, requesterID, StatusActive, StatusCancelled, now)
	}

	return s.repo.GetByID(ctx, a.ID)
}

// Reject rechaza la solicitud. Mismo ownership que Approve, pero el
// rechazo es independiente: no toca ni la mascota ni a los siblings.
func (s *Service) Reject(ctx context.Context, id, requesterID string) (Application, error) {
	a, err := s.getForUpdate(ctx, id, requesterID)
	if err != nil {
		return Application{}, err
	}

	p, err := s.pets.GetByID(ctx, a.PetID)
	if err != nil {
		return Application{}, mapPetErr(err)
	}
	if p.OwnerUserID != requesterID {
		return Application{}, ErrForbidden
	}

	return s.resolve(ctx, a, StatusRejected, requesterID)
}

// Delete elimina la solicitud sin chequear ownership (vía
// administrativa). El repo preserva el invariante del contador si la
// solicitud estaba active.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.repo.Delete(ctx, id, now); err != nil {
		return err
	}
	s.record(ctx, a.ID, a.PetID, "", a.Status, "deleted", now)
	return nil
}

// Get expone una solicitud al solicitante, al dueño de la mascota o a
// un admin.
func (s *Service) Get(ctx context.Context, id, requesterID string, admin bool) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrNotFound
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if admin || a.ApplicantID == requesterID {
		return a, nil
	}

	p, err := s.pets.GetByID(ctx, a.PetID)
	if err == nil && p.OwnerUserID == requesterID {
		return a, nil
	}
	return Application{}, ErrForbidden
}

// ListByPet lista las solicitudes de una mascota. Solo el dueño (o un
// admin) ve la bandeja.
func (s *Service) ListByPet(ctx context.Context, petID, requesterID string, admin bool) ([]Application, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}

	if !admin {
		p, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return nil, mapPetErr(err)
		}
		if p.OwnerUserID != requesterID {
			return nil, ErrForbidden
		}
	}

	return s.repo.ListByPet(ctx, petID)
}

// ListByApplicant lista "mis solicitudes". Consulta la colección por
// applicant_id (autoritativa), no el array denormalizado del usuario.
func (s *Service) ListByApplicant(ctx context.Context, applicantID string) ([]Application, error) {
	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByApplicant(ctx, applicantID)
}

// ActiveCountByPet implementa pets.ActiveCounter (guard de retiro).
func (s *Service) ActiveCountByPet(ctx context.Context, petID string) (int, error) {
	return s.repo.CountActiveByPet(ctx, petID)
}

// Reconcile recomputa el contador applicants desde la colección de
// solicitudes y, si difiere del cacheado, escribe el valor correcto.
// Es función pura del estado almacenado: llamarla de más es inocuo y
// dos reconciliaciones concurrentes escriben el mismo valor.
func (s *Service) Reconcile(ctx context.Context, petID string) (pets.Pet, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return pets.Pet{}, err
	}

	n, err := s.repo.CountActiveByPet(ctx, petID)
	if err != nil {
		return pets.Pet{}, err
	}

	if p.Applicants != n {
		if err := s.pets.SetApplicants(ctx, petID, n); err != nil {
			return pets.Pet{}, err
		}
		p.Applicants = n
	}
	return p, nil
}

func (s *Service) getForUpdate(ctx context.Context, id, requesterID string) (Application, error) {
	id = strings.TrimSpace(id)
	requesterID = strings.TrimSpace(requesterID)
	if id == "" || requesterID == "" {
		return Application{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	return a, nil
}

func (s *Service) resolve(ctx context.Context, a Application, to Status, actorID string) (Application, error) {
	if a.Status.Terminal() {
		return Application{}, ErrBadState
	}

	now := s.now()
	if err := s.repo.Resolve(ctx, a.ID, to, now); err != nil {
		return Application{}, err
	}

	s.record(ctx, a.ID, a.PetID, actorID, StatusActive, to, now)
	return s.repo.GetByID(ctx, a.ID)
}

func (s *Service) record(ctx context.Context, appID, petID, actorID string, from, to Status, at time.Time) {
	if s.rec == nil {
		return
	}
	if err := s.rec.Record(ctx, appID, petID, actorID, string(from), string(to), at); err != nil {
		zap.L().Warn("audit record failed",
			zap.String("application_id", appID),
			zap.Error(err),
		)
	}
}

func mapPetErr(err error) error {
	if errors.Is(err, pets.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
