package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"pet-adoption-market/internal/domain/adoptions"
	"pet-adoption-market/internal/domain/pets"
)

type adoptionRepo struct {
	s *Store
}

func (r *adoptionRepo) Create(ctx context.Context, a adoptions.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("application id required")
	}
	if _, exists := r.s.apps[a.ID]; exists {
		return errors.New("application already exists")
	}

	// Equivalente del constraint de unicidad parcial: a lo sumo una
	// active por (pet, applicant), chequeado bajo el mismo lock que el
	// insert: dos creates concurrentes no pueden pasar los dos.
	for _, existing := range r.s.apps {
		if existing.PetID == a.PetID &&
			existing.ApplicantID == a.ApplicantID &&
			existing.Status == adoptions.StatusActive {
			return adoptions.ErrConflict
		}
	}

	p, ok := r.s.pets[a.PetID]
	if !ok {
		return adoptions.ErrNotFound
	}
	// Re-chequeo de disponibilidad bajo el lock: el gate del service lee
	// ANTES de llegar acá y puede perder contra un approve concurrente
	// que ya dejó la mascota adopted.
	if p.Status != pets.StatusAvailable {
		return adoptions.ErrBadState
	}

	r.s.apps[a.ID] = a

	p.Applicants++
	p.UpdatedAt = a.CreatedAt
	r.s.pets[a.PetID] = p

	u := r.s.userOrStub(a.ApplicantID)
	u.Applications = append(u.Applications, a.ID)
	r.s.users[a.ApplicantID] = u

	return nil
}

func (r *adoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.apps[id]
	if !ok {
		return adoptions.Application{}, adoptions.ErrNotFound
	}
	return a, nil
}

func (r *adoptionRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]adoptions.Application, 0)
	for _, a := range r.s.apps {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *adoptionRepo) ListByApplicant(ctx context.Context, applicantID string) ([]adoptions.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]adoptions.Application, 0)
	for _, a := range r.s.apps {
		if a.ApplicantID == applicantID {
			out = append(out, a)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *adoptionRepo) CountActiveByPet(ctx context.Context, petID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countActiveLocked(petID), nil
}

func (r *adoptionRepo) Resolve(ctx context.Context, id string, to adoptions.Status, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.apps[id]
	if !ok {
		return adoptions.ErrNotFound
	}
	// Predicado evaluado bajo el lock: un retry sobre una terminal no
	// toca nada.
	if a.Status != adoptions.StatusActive {
		return adoptions.ErrBadState
	}

	a.Status = to
	a.UpdatedAt = now
	a.ResolvedAt = &now
	r.s.apps[id] = a

	r.decrementApplicantsLocked(a.PetID, now)
	return nil
}

func (r *adoptionRepo) Approve(ctx context.Context, id, petID string, now time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.apps[id]
	if !ok {
		return nil, adoptions.ErrNotFound
	}
	if a.Status != adoptions.StatusActive {
		return nil, adoptions.ErrBadState
	}

	// (a) esta pasa a approved
	a.Status = adoptions.StatusApproved
	a.UpdatedAt = now
	a.ResolvedAt = &now
	r.s.apps[id] = a

	// (b) siblings active -> cancelled
	cancelled := make([]string, 0)
	for sibID, sib := range r.s.apps {
		if sibID == id || sib.PetID != petID || sib.Status != adoptions.StatusActive {
			continue
		}
		sib.Status = adoptions.StatusCancelled
		sib.UpdatedAt = now
		sib.ResolvedAt = &now
		r.s.apps[sibID] = sib
		cancelled = append(cancelled, sibID)
	}
	sort.Strings(cancelled)

	// (c) la mascota queda adopted. El contador queda como esté: el
	// reconciler lo lleva a cero en el próximo read.
	if p, ok := r.s.pets[petID]; ok {
		p.Status = pets.StatusAdopted
		p.UpdatedAt = now
		r.s.pets[petID] = p
	}

	return cancelled, nil
}

func (r *adoptionRepo) Delete(ctx context.Context, id string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.apps[id]
	if !ok {
		return adoptions.ErrNotFound
	}

	if a.Status == adoptions.StatusActive {
		r.decrementApplicantsLocked(a.PetID, now)
	}

	delete(r.s.apps, id)
	if u, ok := r.s.users[a.ApplicantID]; ok {
		u.Applications = removeID(u.Applications, id)
		r.s.users[a.ApplicantID] = u
	}
	return nil
}

func (r *adoptionRepo) countActiveLocked(petID string) int {
	n := 0
	for _, a := range r.s.apps {
		if a.PetID == petID && a.Status == adoptions.StatusActive {
			n++
		}
	}
	return n
}

// decrementApplicantsLocked baja el contador con piso en cero.
func (r *adoptionRepo) decrementApplicantsLocked(petID string, now time.Time) {
	p, ok := r.s.pets[petID]
	if !ok {
		return
	}
	if p.Applicants > 0 {
		p.Applicants--
	}
	p.UpdatedAt = now
	r.s.pets[petID] = p
}

func sortByCreated(items []adoptions.Application) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
