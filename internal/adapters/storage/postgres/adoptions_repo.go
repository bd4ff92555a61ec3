package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-adoption-market/internal/domain/adoptions"

	"github.com/jackc/pgx/v5/pgconn"
)

type AdoptionsRepo struct {
	db *sql.DB
}

func NewAdoptionsRepo(db *sql.DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

const applicationColumns = `
	id, pet_id, applicant_id,
	reason, experience, living_condition,
	status, created_at, updated_at, resolved_at
`

// Create inserta la solicitud + contador + back-ref en una transacción.
// El duplicado active NO se chequea con un SELECT previo: lo detecta el
// índice de unicidad parcial en el INSERT mismo, que es la única forma
// de que dos creates concurrentes no pasen los dos.
func (r *AdoptionsRepo) Create(ctx context.Context, a adoptions.Application) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (
			id, pet_id, applicant_id,
			reason, experience, living_condition,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		a.ID,
		a.PetID,
		a.ApplicantID,
		a.Reason,
		a.Experience,
		a.LivingCondition,
		string(a.Status),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return translateConstraint(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pets
		SET applicants = applicants + 1, updated_at = $2
		WHERE id = $1 AND status = 'available'
	`, a.PetID, a.CreatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// El FK del INSERT ya garantizó que la mascota existe: cero
		// filas acá significa que dejó de estar available (un approve
		// concurrente ganó la carrera contra el gate del service).
		return adoptions.ErrBadState
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, applications, created_at, updated_at)
		VALUES ($1, jsonb_build_array($2::text), $3, $3)
		ON CONFLICT (id) DO UPDATE
		SET applications = users.applications || jsonb_build_array($2::text),
		    updated_at   = $3
	`, a.ApplicantID, a.ID, a.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return adoptions.Application{}, adoptions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)

	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return adoptions.Application{}, adoptions.ErrNotFound
		}
		return adoptions.Application{}, err
	}
	return a, nil
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Application, error) {
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE pet_id = $1 ORDER BY created_at ASC, id ASC`,
		petID)
}

func (r *AdoptionsRepo) ListByApplicant(ctx context.Context, applicantID string) ([]adoptions.Application, error) {
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE applicant_id = $1 ORDER BY created_at ASC, id ASC`,
		applicantID)
}

func (r *AdoptionsRepo) CountActiveByPet(ctx context.Context, petID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM applications
		WHERE pet_id = $1 AND status = 'active'
	`, petID).Scan(&n)
	return n, err
}

// Resolve: active -> terminal + decremento del contador (piso cero),
// una transacción. El predicado status = 'active' va en el UPDATE: un
// retry sobre una terminal afecta cero filas y devuelve ErrBadState
// sin tocar nada.
func (r *AdoptionsRepo) Resolve(ctx context.Context, id string, to adoptions.Status, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var petID string
	err = tx.QueryRowContext(ctx, `
		UPDATE applications
		SET status = $2, updated_at = $3, resolved_at = $3
		WHERE id = $1 AND status = 'active'
		RETURNING pet_id
	`, id, string(to), now).Scan(&petID)
	if errors.Is(err, sql.ErrNoRows) {
		return r.badStateOrMissing(ctx, tx, id)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE pets
		SET applicants = GREATEST(applicants - 1, 0), updated_at = $2
		WHERE id = $1
	`, petID, now); err != nil {
		return err
	}

	return tx.Commit()
}

// Approve: el efecto triple en una transacción. El contador queda
// stale a propósito (el conteo real pasa a ser cero); lo repara el
// reconciler en el próximo read.
func (r *AdoptionsRepo) Approve(ctx context.Context, id, petID string, now time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// (a) esta solicitud pasa a approved
	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = 'approved', updated_at = $2, resolved_at = $2
		WHERE id = $1 AND status = 'active'
	`, id, now)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, r.badStateOrMissing(ctx, tx, id)
	}

	// (b) siblings active -> cancelled
	rows, err := tx.QueryContext(ctx, `
		UPDATE applications
		SET status = 'cancelled', updated_at = $3, resolved_at = $3
		WHERE pet_id = $2 AND status = 'active' AND id <> $1
		RETURNING id
	`, id, petID, now)
	if err != nil {
		return nil, err
	}
	cancelled := make([]string, 0)
	for rows.Next() {
		var sibID string
		if err := rows.Scan(&sibID); err != nil {
			rows.Close()
			return nil, err
		}
		cancelled = append(cancelled, sibID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// (c) la mascota queda adopted
	if _, err := tx.ExecContext(ctx, `
		UPDATE pets SET status = 'adopted', updated_at = $2 WHERE id = $1
	`, petID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Delete: borrado incondicional (vía administrativa), preservando el
// invariante del contador si la solicitud estaba active.
func (r *AdoptionsRepo) Delete(ctx context.Context, id string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		petID       string
		applicantID string
		status      string
	)
	err = tx.QueryRowContext(ctx, `
		DELETE FROM applications WHERE id = $1
		RETURNING pet_id, applicant_id, status
	`, id).Scan(&petID, &applicantID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return adoptions.ErrNotFound
	}
	if err != nil {
		return err
	}

	if status == string(adoptions.StatusActive) {
		if _, err := tx.ExecContext(ctx, `
			UPDATE pets
			SET applicants = GREATEST(applicants - 1, 0), updated_at = $2
			WHERE id = $1
		`, petID, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET applications = applications - $2::text, updated_at = $3
		WHERE id = $1
	`, applicantID, id, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AdoptionsRepo) list(ctx context.Context, query, arg string) ([]adoptions.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]adoptions.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// badStateOrMissing distingue "ya no está active" de "no existe"
// cuando un UPDATE condicionado afectó cero filas.
func (r *AdoptionsRepo) badStateOrMissing(ctx context.Context, tx *sql.Tx, id string) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return adoptions.ErrBadState
	}
	return adoptions.ErrNotFound
}

func scanApplication(row rowScanner) (adoptions.Application, error) {
	var (
		a        adoptions.Application
		resolved sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.ApplicantID,
		&a.Reason,
		&a.Experience,
		&a.LivingCondition,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&resolved,
	); err != nil {
		return adoptions.Application{}, err
	}
	if resolved.Valid {
		t := resolved.Time
		a.ResolvedAt = &t
	}
	return a, nil
}

// translateConstraint mapea violaciones de constraints a los errores de
// dominio, para que el caller vea el mismo ErrConflict que daría un
// pre-check de aplicación:
// - 23505 unique_violation (índice parcial del par active) -> ErrConflict
// - 23503 foreign_key_violation (la mascota ya no existe)  -> ErrNotFound
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return adoptions.ErrConflict
		case "23503":
			return adoptions.ErrNotFound
		}
	}
	return err
}
