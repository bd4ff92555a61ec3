package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")
)

var validate = validator.New()

// ActiveCounter expone el conteo real de solicitudes active por mascota.
// Lo implementa *adoptions.Service; se declara acá para evitar el ciclo
// de imports pets <-> adoptions.
type ActiveCounter interface {
	ActiveCountByPet(ctx context.Context, petID string) (int, error)
}

type Service struct {
	repo   Repository
	active ActiveCounter
	now    func() time.Time
}

func NewService(repo Repository, active ActiveCounter) *Service {
	return &Service{
		repo:   repo,
		active: active,
		now:    time.Now,
	}
}

// BindActiveCounter inyecta el contador después de la construcción.
// pets y adoptions se necesitan mutuamente; al armar el router, pets se
// construye primero (con nil) y recibe el contador cuando adoptions
// existe. Solo para el wiring inicial, no es thread-safe.
func (s *Service) BindActiveCounter(active ActiveCounter) {
	s.active = active
}

type PublishInput struct {
	Name         string `validate:"required"`
	Type         string `validate:"required,oneof=dog cat bird other"`
	Breed        string
	Age          int    `validate:"gte=0,lte=50"`
	Gender       string `validate:"omitempty,oneof=male female unknown"`
	Description  string
	Requirements string
	Images       []string
	Medical      Medical
}

// Publish crea la publicación en estado available con contador en cero.
func (s *Service) Publish(ctx context.Context, ownerUserID string, in PublishInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	if err := validate.Struct(in); err != nil {
		return Pet{}, ErrInvalidInput
	}

	gender := Gender(in.Gender)
	if gender == "" {
		gender = GenderUnknown
	}

	now := s.now()
	p := Pet{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		Name:         in.Name,
		Type:         PetType(in.Type),
		Breed:        strings.TrimSpace(in.Breed),
		Age:          in.Age,
		Gender:       gender,
		Description:  strings.TrimSpace(in.Description),
		Requirements: strings.TrimSpace(in.Requirements),
		Images:       in.Images,
		Medical:      in.Medical,
		Status:       StatusAvailable,
		Applicants:   0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Pet, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, ListFilter{Owner: ownerUserID})
}

// SetApplicants es el write correctivo del reconciler (ver adoptions).
func (s *Service) SetApplicants(ctx context.Context, petID string, n int) error {
	if n < 0 {
		n = 0
	}
	return s.repo.SetApplicants(ctx, petID, n)
}

// CancelPublication retira la publicación: borra la mascota y TODAS sus
// solicitudes (de cualquier estado) en cascada, y desengancha el id de
// la lista de publicaciones del dueño.
//
// Guard: solo con cero solicitudes active. El chequeo acá es el
// pre-check amistoso; el repo re-evalúa el guard dentro de su unidad
// atómica para cerrar la carrera con un create concurrente.
func (s *Service) CancelPublication(ctx context.Context, petID, requesterID string) error {
	petID = strings.TrimSpace(petID)
	requesterID = strings.TrimSpace(requesterID)
	if petID == "" || requesterID == "" {
		return ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return err
	}
	if p.OwnerUserID != requesterID {
		return ErrForbidden
	}

	n, err := s.active.ActiveCountByPet(ctx, petID)
	if err != nil {
		return err
	}
	if err := CanWithdraw(n); err != nil {
		return err
	}

	return s.repo.Delete(ctx, petID)
}
