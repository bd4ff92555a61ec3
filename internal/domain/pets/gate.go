package pets

// Gate de disponibilidad: funciones puras sobre el estado ya leído.
// El chequeo de "ya tiene una solicitud active" NO vive acá porque
// necesita la colección de solicitudes; lo cierra el módulo adoptions
// (pre-check + constraint de unicidad en storage).

// CanApply responde si userID puede crear una solicitud sobre p.
// Devuelve nil si puede, o el sentinel que corresponde:
// - ErrBadState si userID es el dueño (no se puede auto-aplicar)
// - ErrBadState si la mascota no está available (adopted o pending)
func CanApply(p Pet, userID string) error {
	if p.OwnerUserID == userID {
		return ErrBadState
	}
	if !p.Adoptable() {
		return ErrBadState
	}
	return nil
}

// CanWithdraw responde si la publicación puede retirarse dado el
// conteo REAL de solicitudes active (no el contador cacheado).
// Retirar con solicitudes vivas dejaría huérfano a un solicitante.
func CanWithdraw(activeCount int) error {
	if activeCount > 0 {
		return ErrBadState
	}
	return nil
}
