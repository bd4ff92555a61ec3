package pets

import "time"

// PetType define los tipos de mascota soportados.
// @Enum dog, cat, bird, other
type PetType string

const (
	TypeDog   PetType = "dog"
	TypeCat   PetType = "cat"
	TypeBird  PetType = "bird"
	TypeOther PetType = "other"
)

// Gender define el sexo de la mascota.
// @Enum male, female, unknown
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Status define el estado de publicación de la mascota.
// @Enum available, pending, adopted
//
// Nota: "pending" existe en el enum pero ningún flujo lo setea hoy
// (el ciclo observado es available -> adopted vía aprobación).
// Lo tratamos como reservado: el gate NO acepta solicitudes sobre una
// mascota pending, así que si un flujo futuro lo usa, el comportamiento
// ya es conservador.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusAdopted   Status = "adopted"
)

// Medical agrupa la información sanitaria que carga el publicador.
// El engine no la interpreta; viaja tal cual al lector.
type Medical struct {
	Vaccinated   bool
	Sterilized   bool
	HealthStatus string
}

// Pet representa una publicación de adopción.
//
// Applicants es un contador DERIVADO: "solicitudes en estado active".
// No es autoritativo: siempre se puede recomputar desde la colección
// de solicitudes, y los read paths lo reconcilian antes de responder.
type Pet struct {
	ID          string
	OwnerUserID string

	Name         string
	Type         PetType
	Breed        string
	Age          int // años cumplidos, aproximado
	Gender       Gender
	Description  string
	Requirements string
	Images       []string
	Medical      Medical

	Status     Status
	Applicants int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Adoptable indica si la publicación acepta solicitudes nuevas según su
// propio estado (sin mirar ownership ni duplicados).
func (p Pet) Adoptable() bool {
	return p.Status == StatusAvailable
}
