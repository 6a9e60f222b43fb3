package publisher

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
)

type Repo interface {
	Create(ctx context.Context, p *model.Publisher) error
	Update(ctx context.Context, p *model.Publisher) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]model.Publisher, int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, p *model.Publisher) error {
	const q = `
		INSERT INTO publishers (id, name, address, phone)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, p.ID, p.Name, p.Address, p.Phone).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, p *model.Publisher) error {
	const q = `
		UPDATE publishers
		SET name = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, p.ID, p.Name, p.Address, p.Phone).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM publishers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context, search string, limit, offset int) ([]model.Publisher, int64, error) {
	const where = `WHERE $1 = '' OR lower(name) LIKE $2 OR lower(address) LIKE $2 OR lower(phone) LIKE $2`
	like := "%" + search + "%"

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM publishers `+where, search, like,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, address, phone, created_at, updated_at
		FROM publishers `+where+`
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`,
		search, like, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Publisher
	for rows.Next() {
		var p model.Publisher
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
