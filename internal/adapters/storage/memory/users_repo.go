package memory

import (
	"context"
	"errors"
	"strings"

	"pet-adoption-market/internal/domain/users"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) UpsertProfile(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}

	// Preserva refs y CreatedAt si el user ya existía (el perfil puede
	// llegar después de publicar/aplicar).
	if existing, ok := r.s.users[u.ID]; ok {
		u.Publications = existing.Publications
		u.Applications = existing.Applications
		u.CreatedAt = existing.CreatedAt
	}

	r.s.users[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) SetRefs(ctx context.Context, id string, publications, applications []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.Publications = publications
	u.Applications = applications
	r.s.users[id] = u
	return nil
}
