package users

import "time"

// User es el perfil público mínimo que el engine necesita (la identidad
// real vive en el colaborador de auth).
//
// Publications y Applications son back-references DENORMALIZADAS: un
// cache de membresía para listar rápido, mantenido por los adapters en
// la misma unidad de escritura que la entidad principal. Nunca son
// fuente de verdad: cualquier chequeo de consistencia va contra las
// colecciones de pets/applications, y el cache se puede reconstruir
// completo con RebuildRefs.
type User struct {
	ID          string
	DisplayName string
	Phone       string
	Address     string

	Publications []string // ids de pets publicados
	Applications []string // ids de solicitudes creadas

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary es la vista del dueño que se incrusta en el payload de una
// mascota.
type Summary struct {
	ID          string
	DisplayName string
	Phone       string
	Address     string
}
