package adoptions

import "time"

// Status define el ciclo de vida de una solicitud de adopción.
// @Enum active, approved, rejected, cancelled
//
// Máquina de estados: active -> {approved, rejected, cancelled},
// una sola transición, irreversible. Los tres destinos son terminales.
type Status string

const (
	StatusActive    Status = "active"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal indica si el estado ya no admite transiciones.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// Application representa una solicitud de adopción sobre una mascota.
//
// Invariante duro: el par (PetID, ApplicantID) admite A LO SUMO una
// solicitud en estado active. No es una convención de aplicación: lo
// cierra un constraint de unicidad parcial en storage (ver adapters).
type Application struct {
	ID          string
	PetID       string
	ApplicantID string

	// Payload libre del solicitante; opaco para el engine.
	Reason          string
	Experience      string
	LivingCondition string

	Status Status

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time // seteado al salir de active
}
