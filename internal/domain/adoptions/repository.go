package adoptions

import (
	"context"
	"time"
)

// Repository persiste solicitudes. Las operaciones compuestas (create,
// resolve, approve, delete) son UNIDADES ATÓMICAS: una transacción SQL
// en postgres, un lock de store en memory. Ningún lector debe poder
// observar efectos parciales (p.ej. aprobada pero con siblings todavía
// active).
type Repository interface {
	// Create inserta la solicitud en estado active, incrementa el
	// contador applicants de la mascota y agrega el id a la lista de
	// solicitudes del usuario, todo en la misma unidad.
	// Devuelve ErrConflict si ya existe una solicitud active para el
	// par (pet, applicant), detectado por el constraint de unicidad
	// parcial, no por un check previo. La disponibilidad de la mascota
	// se re-valida DENTRO de la unidad (ErrBadState si ya no está
	// available): el gate del service lee antes y puede perder contra
	// un approve concurrente.
	Create(ctx context.Context, a Application) error

	GetByID(ctx context.Context, id string) (Application, error)
	ListByPet(ctx context.Context, petID string) ([]Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]Application, error)
	CountActiveByPet(ctx context.Context, petID string) (int, error)

	// Resolve mueve la solicitud de active a un terminal (cancelled o
	// rejected) y decrementa el contador de la mascota (con piso en
	// cero). El predicado "status = active" se evalúa dentro de la
	// unidad atómica: si la solicitud ya no está active devuelve
	// ErrBadState sin tocar nada (retry-safe).
	Resolve(ctx context.Context, id string, to Status, now time.Time) error

	// Approve aplica el efecto triple de la aprobación como una sola
	// unidad: (a) esta solicitud pasa a approved, (b) toda otra
	// solicitud active de la misma mascota pasa a cancelled, (c) la
	// mascota pasa a adopted. No ajusta el contador: después de esto
	// el conteo real es cero y lo repara el reconciler en el próximo
	// read. Devuelve los ids de los siblings cancelados (para el audit
	// trail) y ErrBadState si la solicitud ya no está active.
	Approve(ctx context.Context, id, petID string, now time.Time) ([]string, error)

	// Delete elimina la solicitud incondicionalmente (vía
	// administrativa). Si estaba active, decrementa el contador en la
	// misma unidad para preservar el invariante. now viene del reloj
	// inyectado del service, como en el resto de las mutaciones.
	Delete(ctx context.Context, id string, now time.Time) error
}
