package postgres

import (
	"context"
	"database/sql"

	"pet-adoption-market/internal/domain/history"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Append(ctx context.Context, e history.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO application_history (id, application_id, pet_id, actor_id, from_status, to_status, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ApplicationID, e.PetID, e.ActorID, e.From, e.To, e.At)
	return err
}

func (r *HistoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]history.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, application_id, pet_id, actor_id, from_status, to_status, at
		FROM application_history
		WHERE application_id = $1
		ORDER BY at ASC, id ASC
	`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]history.Entry, 0)
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.PetID, &e.ActorID, &e.From, &e.To, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
