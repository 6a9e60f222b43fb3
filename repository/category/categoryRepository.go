package category

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
)

type Repo interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]model.Category, int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, c *model.Category) error {
	const q = `
		INSERT INTO categories (id, name, description)
		VALUES ($1,$2,$3)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.Description).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, c *model.Category) error {
	const q = `
		UPDATE categories
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.Description).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context, search string, limit, offset int) ([]model.Category, int64, error) {
	const where = `WHERE $1 = '' OR lower(name) LIKE $2 OR lower(description) LIKE $2`
	like := "%" + search + "%"

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories `+where, search, like,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories `+where+`
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`,
		search, like, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
