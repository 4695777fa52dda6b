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

// scrapRepo implements domain.ScrapRepository using SQLite.
type scrapRepo struct {
	db *sql.DB
}

const scrapColumns = `id, user_id, category_id, type, url, title, memo, created_at`

func (r *scrapRepo) Create(ctx context.Context, scrap *domain.Scrap) error {
	scrapID, err := id.Generate(id.PrefixScrap)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO scraps (`+scrapColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scrapID, scrap.UserID, scrap.CategoryID, scrap.Type,
		scrap.Data.URL, scrap.Data.Title, scrap.Data.Memo, now,
	)
	if err != nil {
		return fmt.Errorf("insert scrap: %w", err)
	}

	scrap.ID = scrapID
	scrap.CreatedAt = now
	return nil
}

func (r *scrapRepo) GetByID(ctx context.Context, userID, scrapID string) (*domain.Scrap, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scrapColumns+` FROM scraps WHERE id = ? AND user_id = ?`, scrapID, userID)

	s, err := scanScrap(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get scrap: %w", err)
	}
	return s, nil
}

func (r *scrapRepo) ListByCategory(ctx context.Context, userID, categoryID string) ([]domain.Scrap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scrapColumns+` FROM scraps
		 WHERE user_id = ? AND category_id = ?
		 ORDER BY created_at DESC, rowid DESC`, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list scraps: %w", err)
	}
	defer rows.Close()

	scraps := []domain.Scrap{}
	for rows.Next() {
		s, err := scanScrap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scrap: %w", err)
		}
		scraps = append(scraps, *s)
	}
	return scraps, rows.Err()
}

func (r *scrapRepo) CountByCategory(ctx context.Context, userID, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM scraps WHERE user_id = ? AND category_id = ?", userID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scraps: %w", err)
	}
	return count, nil
}

func (r *scrapRepo) Delete(ctx context.Context, userID, scrapID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM scraps WHERE id = ? AND user_id = ?", scrapID, userID)
	if err != nil {
		return fmt.Errorf("delete scrap: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScrap(row rowScanner) (*domain.Scrap, error) {
	var s domain.Scrap
	if err := row.Scan(&s.ID, &s.UserID, &s.CategoryID, &s.Type,
		&s.Data.URL, &s.Data.Title, &s.Data.Memo, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
