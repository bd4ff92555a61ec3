// Package memory implementa los repositorios sobre maps en proceso.
// Un solo Store con un solo mutex cubre las cuatro colecciones: las
// operaciones compuestas (create + contador + back-ref, aprobación con
// cancelación de siblings, borrado en cascada con guard) necesitan la
// misma atomicidad que dan las transacciones en postgres, y acá eso es
// simplemente "todo bajo el mismo lock".
package memory

import (
	"sync"

	"pet-adoption-market/internal/domain/adoptions"
	"pet-adoption-market/internal/domain/history"
	"pet-adoption-market/internal/domain/pets"
	"pet-adoption-market/internal/domain/users"
)

type Store struct {
	mu sync.Mutex

	pets    map[string]pets.Pet
	apps    map[string]adoptions.Application
	users   map[string]users.User
	entries map[string][]history.Entry // por application id
}

func NewStore() *Store {
	return &Store{
		pets:    make(map[string]pets.Pet),
		apps:    make(map[string]adoptions.Application),
		users:   make(map[string]users.User),
		entries: make(map[string][]history.Entry),
	}
}

func (s *Store) Pets() pets.Repository           { return &petRepo{s} }
func (s *Store) Adoptions() adoptions.Repository { return &adoptionRepo{s} }
func (s *Store) Users() users.Repository         { return &userRepo{s} }
func (s *Store) History() history.Repository     { return &historyRepo{s} }

// userOrStub devuelve el user existente o un stub con solo el id (el
// perfil llega después vía UpsertProfile; las back-refs no lo esperan).
// Llamar con el lock tomado.
func (s *Store) userOrStub(id string) users.User {
	if u, ok := s.users[id]; ok {
		return u
	}
	return users.User{ID: id}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
