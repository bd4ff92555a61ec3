package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"pet-adoption-market/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id,
	name, type, breed, age, gender,
	description, requirements, images,
	vaccinated, sterilized, health_status,
	status, applicants,
	created_at, updated_at
`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pets (
			id, owner_user_id,
			name, type, breed, age, gender,
			description, requirements, images,
			vaccinated, sterilized, health_status,
			status, applicants,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		string(p.Type),
		p.Breed,
		p.Age,
		string(p.Gender),
		p.Description,
		p.Requirements,
		toJSONStrings(p.Images),
		p.Medical.Vaccinated,
		p.Medical.Sterilized,
		p.Medical.HealthStatus,
		string(p.Status),
		p.Applicants,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// Back-ref del dueño en la misma transacción que el insert.
	// Upsert porque el perfil puede no existir todavía.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, publications, created_at, updated_at)
		VALUES ($1, jsonb_build_array($2::text), $3, $3)
		ON CONFLICT (id) DO UPDATE
		SET publications = users.publications || jsonb_build_array($2::text),
		    updated_at   = $3
	`, p.OwnerUserID, p.ID, p.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	// Filtros opcionales: parámetro vacío = sin filtro.
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE ($1 = '' OR type = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR owner_user_id = $3)
		ORDER BY created_at ASC
	`, string(f.Type), string(f.Status), f.Owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) SetApplicants(ctx context.Context, id string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET applicants = GREATEST($2, 0), updated_at = now()
		WHERE id = $1
	`, id, n)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Solicitudes de la mascota, lockeadas para que un create
	// concurrente no se cuele entre el guard y el delete.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, applicant_id FROM applications
		WHERE pet_id = $1
		FOR UPDATE
	`, id)
	if err != nil {
		return err
	}

	type ref struct{ appID, applicantID string }
	refs := make([]ref, 0)
	for rows.Next() {
		var v ref
		if err := rows.Scan(&v.appID, &v.applicantID); err != nil {
			rows.Close()
			return err
		}
		refs = append(refs, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Guard re-evaluado dentro de la transacción. El DELETE en cascada
	// (FK) se lleva las solicitudes terminales.
	var ownerID string
	err = tx.QueryRowContext(ctx, `
		DELETE FROM pets
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM applications
			WHERE pet_id = $1 AND status = 'active'
		  )
		RETURNING owner_user_id
	`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return pets.ErrBadState
		}
		return pets.ErrNotFound
	}
	if err != nil {
		return err
	}

	// Detach de back-refs: la publicación del dueño y las solicitudes
	// de cada applicant.
	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET publications = publications - $2::text, updated_at = now()
		WHERE id = $1
	`, ownerID, id); err != nil {
		return err
	}
	for _, v := range refs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET applications = applications - $2::text, updated_at = now()
			WHERE id = $1
		`, v.applicantID, v.appID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p      pets.Pet
		images []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Type,
		&p.Breed,
		&p.Age,
		&p.Gender,
		&p.Description,
		&p.Requirements,
		&images,
		&p.Medical.Vaccinated,
		&p.Medical.Sterilized,
		&p.Medical.HealthStatus,
		&p.Status,
		&p.Applicants,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

// toJSONStrings serializa un slice de strings a jsonb (nil => []).
func toJSONStrings(in []string) []byte {
	if in == nil {
		in = []string{}
	}
	b, _ := json.Marshal(in)
	return b
}
