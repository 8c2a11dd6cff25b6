package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/normalize"
	"github.com/platefulapp/plateful-server/internal/store"
)

const tagColumns = `id, created_at, updated_at, name, slug, usage_count`

// tagRow mirrors the tags table.
type tagRow struct {
	id         string
	createdAt  string
	updatedAt  string
	name       string
	slug       string
	usageCount int
}

func (r *tagRow) scan(s interface{ Scan(dest ...any) error }) error {
	return s.Scan(&r.id, &r.createdAt, &r.updatedAt, &r.name, &r.slug, &r.usageCount)
}

func (r *tagRow) toDomain() (*domain.Tag, error) {
	t := &domain.Tag{
		Name:       r.name,
		Slug:       r.slug,
		UsageCount: r.usageCount,
	}
	t.ID = r.id

	var err error
	if t.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// catalogOrderClause maps a CatalogFilter.Ordering value to a safe ORDER BY
// clause. Column names are whitelisted; user input never reaches the SQL
// text directly.
func catalogOrderClause(ordering string, allowCategory bool) string {
	desc := strings.HasPrefix(ordering, "-")
	col := strings.TrimPrefix(ordering, "-")

	switch col {
	case "name", "usage_count", "created_at":
	case "category":
		if !allowCategory {
			col = ""
		}
	default:
		col = ""
	}
	if col == "" {
		// Default: most used first, alphabetical tiebreak.
		return " ORDER BY usage_count DESC, name ASC"
	}

	clause := " ORDER BY " + col
	if desc {
		clause += " DESC"
	} else {
		clause += " ASC"
	}
	return clause + ", name ASC"
}

// ListTags returns tags matching the filter.
func (s *Store) ListTags(ctx context.Context, filter store.CatalogFilter) ([]*domain.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE 1=1`
	var args []any

	if filter.UsedOnly {
		query += ` AND usage_count > 0`
	}
	if filter.Search != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+normalize.Name(filter.Search)+"%")
	}
	query += catalogOrderClause(filter.Ordering, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		var row tagRow
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTagByName retrieves a tag by its normalized name.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var row tagRow
	err := row.scan(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, normalize.Name(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists on a normalized-name or slug collision.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (`+tagColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tag.ID,
		formatTime(tag.CreatedAt),
		formatTime(tag.UpdatedAt),
		tag.Name,
		tag.Slug,
		tag.UsageCount,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// getOrCreateTagTx finds a tag by normalized name inside an open transaction,
// creating it if needed, and increments its usage count. Used by the recipe
// aggregate writes so counter adjustments commit or roll back with the rest
// of the operation.
func getOrCreateTagTx(ctx context.Context, tx *sql.Tx, name string) (tagID string, err error) {
	name = normalize.Name(name)

	err = tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		tagID, err = id.Generate("tag")
		if err != nil {
			return "", err
		}
		now := formatTime(time.Now())
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tags (id, created_at, updated_at, name, slug, usage_count)
			VALUES (?, ?, ?, ?, ?, 1)`,
			tagID, now, now, name, normalize.Slug(name))
		if err != nil {
			return "", err
		}
		return tagID, nil
	}
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tags SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), tagID)
	if err != nil {
		return "", err
	}
	return tagID, nil
}

// releaseTagTx decrements a tag's usage count, floored at zero.
// Over-release never fails; the counter is advisory.
func releaseTagTx(ctx context.Context, tx *sql.Tx, tagID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tags
		SET usage_count = MAX(usage_count - 1, 0), updated_at = ?
		WHERE id = ?`,
		formatTime(time.Now()), tagID)
	return err
}
