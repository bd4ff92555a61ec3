package users

import "context"

type Repository interface {
	// UpsertProfile crea o actualiza los campos de perfil sin tocar
	// las back-references (esas las mantienen los adapters de
	// pets/adoptions dentro de sus propias unidades de escritura).
	UpsertProfile(ctx context.Context, u User) error

	GetByID(ctx context.Context, id string) (User, error)

	// SetRefs reemplaza ambos arrays (rebuild completo del cache).
	SetRefs(ctx context.Context, id string, publications, applications []string) error
}
