package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

var validate = validator.New()

// PublicationSource y ApplicationSource exponen los ids autoritativos
// desde las colecciones de pets/applications. Los implementan
// *pets.Service y *adoptions.Service; se declaran acá para que users
// quede como paquete hoja.
type PublicationSource interface {
	PublicationIDs(ctx context.Context, ownerID string) ([]string, error)
}

type ApplicationSource interface {
	ApplicationIDs(ctx context.Context, applicantID string) ([]string, error)
}

type Service struct {
	repo Repository
	pubs PublicationSource
	apps ApplicationSource
	now  func() time.Time
}

func NewService(repo Repository, pubs PublicationSource, apps ApplicationSource) *Service {
	return &Service{
		repo: repo,
		pubs: pubs,
		apps: apps,
		now:  time.Now,
	}
}

type ProfileInput struct {
	DisplayName string `validate:"required"`
	Phone       string
	Address     string
}

func (s *Service) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrInvalidInput
	}
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate.Struct(in); err != nil {
		return User{}, ErrInvalidInput
	}

	now := s.now()
	u := User{
		ID:          userID,
		DisplayName: in.DisplayName,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.UpsertProfile(ctx, u); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Address:     u.Address,
	}, nil
}

// RebuildRefs reconstruye ambos arrays desde las colecciones
// autoritativas. Sirve para reparar drift del cache (borrados
// administrativos, bugs viejos) sin razonar sobre cada mutación.
func (s *Service) RebuildRefs(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrInvalidInput
	}

	pubs, err := s.pubs.PublicationIDs(ctx, userID)
	if err != nil {
		return User{}, err
	}
	apps, err := s.apps.ApplicationIDs(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if err := s.repo.SetRefs(ctx, userID, pubs, apps); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}
