package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/normalize"
	"github.com/platefulapp/plateful-server/internal/store"
)

// ingredientColumns is the ordered list of columns selected in ingredient
// queries. Must match the scan order in scanIngredient.
const ingredientColumns = `id, created_at, updated_at, name, category, usage_count`

// scanIngredient scans a sql.Row (or sql.Rows) into a domain.Ingredient.
func scanIngredient(scanner interface{ Scan(dest ...any) error }) (*domain.Ingredient, error) {
	var ing domain.Ingredient

	var (
		createdAt string
		updatedAt string
		category  sql.NullString
	)

	err := scanner.Scan(
		&ing.ID,
		&createdAt,
		&updatedAt,
		&ing.Name,
		&category,
		&ing.UsageCount,
	)
	if err != nil {
		return nil, err
	}

	ing.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	ing.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		ing.Category = category.String
	}

	return &ing, nil
}

// ListIngredients returns ingredients matching the filter.
func (s *Store) ListIngredients(ctx context.Context, filter store.CatalogFilter) ([]*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE 1=1`
	var args []any

	if filter.UsedOnly {
		query += ` AND usage_count > 0`
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, normalize.Name(filter.Category))
	}
	if filter.Search != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+normalize.Name(filter.Search)+"%")
	}
	query += catalogOrderClause(filter.Ordering, true)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*domain.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ingredients, nil
}

// GetIngredientByName retrieves an ingredient by its normalized name.
// Returns store.ErrNotFound if the ingredient does not exist.
func (s *Store) GetIngredientByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE name = ?`,
		normalize.Name(name))

	ing, err := scanIngredient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// getOrCreateIngredientTx finds an ingredient by normalized name inside an
// open transaction, creating it if needed, and increments its usage count.
func getOrCreateIngredientTx(ctx context.Context, tx *sql.Tx, name string) (ingredientID string, err error) {
	name = normalize.Name(name)

	err = tx.QueryRowContext(ctx, `SELECT id FROM ingredients WHERE name = ?`, name).Scan(&ingredientID)
	if errors.Is(err, sql.ErrNoRows) {
		ingredientID, err = id.Generate("ing")
		if err != nil {
			return "", err
		}
		now := formatTime(time.Now())
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingredients (id, created_at, updated_at, name, category, usage_count)
			VALUES (?, ?, ?, ?, NULL, 1)`,
			ingredientID, now, now, name)
		if err != nil {
			return "", err
		}
		return ingredientID, nil
	}
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ingredients SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), ingredientID)
	if err != nil {
		return "", err
	}
	return ingredientID, nil
}

// releaseIngredientTx decrements an ingredient's usage count, floored at
// zero. Over-release never fails; the counter is advisory.
func releaseIngredientTx(ctx context.Context, tx *sql.Tx, ingredientID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE ingredients
		SET usage_count = MAX(usage_count - 1, 0), updated_at = ?
		WHERE id = ?`,
		formatTime(time.Now()), ingredientID)
	return err
}
