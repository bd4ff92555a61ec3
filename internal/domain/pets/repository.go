package pets

import "context"

// ListFilter filtra el listado público. Campos vacíos = sin filtro.
type ListFilter struct {
	Type   PetType
	Status Status
	Owner  string
}

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, f ListFilter) ([]Pet, error)

	// SetApplicants es el write correctivo del reconciler.
	SetApplicants(ctx context.Context, id string, n int) error

	// Delete borra la publicación en cascada (mascota + TODAS sus
	// solicitudes + back-refs del dueño), solo si no hay solicitudes
	// active. Debe devolver ErrBadState si existe alguna active en el
	// momento del borrado (el guard se re-evalúa dentro de la misma
	// unidad atómica para cerrar la carrera check-then-delete).
	Delete(ctx context.Context, id string) error
}
