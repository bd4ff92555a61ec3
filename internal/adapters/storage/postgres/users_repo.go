package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"pet-adoption-market/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// UpsertProfile escribe solo los campos de perfil. Las back-refs no se
// tocan: esas columnas las mantienen los repos de pets/adoptions dentro
// de sus propias transacciones.
func (r *UsersRepo) UpsertProfile(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET display_name = $2,
		    phone        = $3,
		    address      = $4,
		    updated_at   = $6
	`, u.ID, u.DisplayName, u.Phone, u.Address, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	var (
		u            users.User
		publications []byte
		applications []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, phone, address, publications, applications, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&u.ID,
		&u.DisplayName,
		&u.Phone,
		&u.Address,
		&publications,
		&applications,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}

	if err := json.Unmarshal(publications, &u.Publications); err != nil {
		return users.User{}, err
	}
	if err := json.Unmarshal(applications, &u.Applications); err != nil {
		return users.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) SetRefs(ctx context.Context, id string, publications, applications []string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET publications = $2, applications = $3, updated_at = now()
		WHERE id = $1
	`, id, toJSONStrings(publications), toJSONStrings(applications))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return users.ErrNotFound
	}
	return nil
}
