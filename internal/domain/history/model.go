package history

import "time"

// Entry es un registro inmutable de una transición de ciclo de vida de
// una solicitud. From vacío = creación. No se borra ni se edita.
type Entry struct {
	ID            string
	ApplicationID string
	PetID         string
	ActorID       string // vacío en transiciones administrativas sin actor
	From          string
	To            string
	At            time.Time
}
