package bookrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Detail(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (id, title, author, category_id, publisher_id, quantity)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Title, b.Author, b.CategoryID, b.PublisherID, b.Quantity,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
		UPDATE books
		SET title = $2, author = $3, category_id = $4, publisher_id = $5,
			quantity = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Title, b.Author, b.CategoryID, b.PublisherID, b.Quantity,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Detail(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	const q = `
		SELECT id, title, author, category_id, publisher_id, quantity, created_at, updated_at
		FROM books
		WHERE id = $1`
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.CategoryID, &b.PublisherID,
		&b.Quantity, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error) {
	const where = `WHERE $1 = '' OR lower(title) LIKE $2 OR lower(author) LIKE $2`
	like := "%" + search + "%"

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books `+where, search, like,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, author, category_id, publisher_id, quantity, created_at, updated_at
		FROM books `+where+`
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`,
		search, like, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.CategoryID, &b.PublisherID,
			&b.Quantity, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}
