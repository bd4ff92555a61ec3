package memory

import (
	"context"
	"errors"
	"strings"

	"pet-adoption-market/internal/domain/history"
)

type historyRepo struct {
	s *Store
}

func (r *historyRepo) Append(ctx context.Context, e history.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(e.ApplicationID) == "" {
		return errors.New("application id required")
	}
	r.s.entries[e.ApplicationID] = append(r.s.entries[e.ApplicationID], e)
	return nil
}

func (r *historyRepo) ListByApplication(ctx context.Context, applicationID string) ([]history.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	src := r.s.entries[applicationID]
	out := make([]history.Entry, len(src))
	copy(out, src)
	return out, nil
}
