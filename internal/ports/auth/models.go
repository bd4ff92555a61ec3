package auth

// Claims representa la identidad ya verificada por el colaborador de
// auth. El engine confía en el UserID y hace sus propios chequeos de
// ownership; no re-verifica autenticación.
type Claims struct {
	UserID string
	Email  string
	Admin  bool // habilita las vías administrativas (delete, history)
}
