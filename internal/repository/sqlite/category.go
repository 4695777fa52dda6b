package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/id"
)

// categoryRepo implements domain.CategoryRepository using SQLite.
type categoryRepo struct {
	db *sql.DB
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	return r.CreateMany(ctx, []*domain.Category{category})
}

func (r *categoryRepo) CreateMany(ctx context.Context, categories []*domain.Category) error {
	ids := make([]string, len(categories))
	for i := range categories {
		generated, err := id.Generate(id.PrefixCategory)
		if err != nil {
			return err
		}
		ids[i] = generated
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
			ids[i], c.UserID, c.Name, now,
		); err != nil {
			return fmt.Errorf("insert category %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for i, c := range categories {
		c.ID = ids[i]
		c.CreatedAt = now
	}
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE id = ? AND user_id = ?`,
		categoryID, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) ListByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories
		 WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	return countCategories(ctx, r.db, userID)
}

func (r *categoryRepo) DeleteWithReassignment(ctx context.Context, userID, categoryID, targetID string) (int, error) {
	if categoryID == targetID {
		return 0, fmt.Errorf("%w: cannot move scraps into the category being deleted", domain.ErrPrecondition)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	count, err := countCategories(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if count <= 1 {
		return 0, fmt.Errorf("%w: another category must exist to receive scraps", domain.ErrPrecondition)
	}

	for _, cid := range []string{categoryID, targetID} {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM categories WHERE id = ? AND user_id = ?`, cid, userID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("check category: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE scraps SET category_id = ? WHERE user_id = ? AND category_id = ?`,
		targetID, userID, categoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("reassign scraps: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID,
	); err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(moved), nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countCategories(ctx context.Context, q queryRower, userID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}
