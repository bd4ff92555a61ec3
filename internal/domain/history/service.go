package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record implementa adoptions.Recorder. Best-effort por contrato del
// caller: acá solo validamos y persistimos.
func (s *Service) Record(ctx context.Context, applicationID, petID, actorID, from, to string, at time.Time) error {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" || strings.TrimSpace(to) == "" {
		return ErrInvalidInput
	}

	return s.repo.Append(ctx, Entry{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		PetID:         strings.TrimSpace(petID),
		ActorID:       strings.TrimSpace(actorID),
		From:          strings.TrimSpace(from),
		To:            strings.TrimSpace(to),
		At:            at,
	})
}

func (s *Service) ListByApplication(ctx context.Context, applicationID string) ([]Entry, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByApplication(ctx, applicationID)
}
