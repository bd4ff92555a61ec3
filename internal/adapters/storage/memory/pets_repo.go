package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"pet-adoption-market/internal/domain/adoptions"
	"pet-adoption-market/internal/domain/pets"
)

type petRepo struct {
	s *Store
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.s.pets[p.ID]; exists {
		return errors.New("pet already exists")
	}

	r.s.pets[p.ID] = p

	// Back-ref del dueño, en la misma unidad que el insert.
	owner := r.s.userOrStub(p.OwnerUserID)
	owner.Publications = append(owner.Publications, p.ID)
	r.s.users[p.OwnerUserID] = owner

	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.s.pets {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Owner != "" && p.OwnerUserID != f.Owner {
			continue
		}
		out = append(out, p)
	}

	// Orden estable por created_at asc (consistencia en dev/tests)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *petRepo) SetApplicants(ctx context.Context, id string, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.ErrNotFound
	}
	if n < 0 {
		n = 0
	}
	p.Applicants = n
	r.s.pets[id] = p
	return nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.ErrNotFound
	}

	// Guard re-evaluado bajo el lock: cierra la carrera con un create
	// concurrente que pasó el pre-check del service.
	for _, a := range r.s.apps {
		if a.PetID == id && a.Status == adoptions.StatusActive {
			return pets.ErrBadState
		}
	}

	// Cascada: solicitudes de cualquier estado + back-refs.
	for appID, a := range r.s.apps {
		if a.PetID != id {
			continue
		}
		delete(r.s.apps, appID)
		if u, ok := r.s.users[a.ApplicantID]; ok {
			u.Applications = removeID(u.Applications, appID)
			r.s.users[a.ApplicantID] = u
		}
	}

	delete(r.s.pets, id)
	if u, ok := r.s.users[p.OwnerUserID]; ok {
		u.Publications = removeID(u.Publications, id)
		r.s.users[p.OwnerUserID] = u
	}

	return nil
}
