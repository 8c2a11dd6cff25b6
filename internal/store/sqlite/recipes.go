package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, created_at, updated_at, owner_id, title, title_lower,
	description, instructions, time_minutes, difficulty, servings, is_public,
	image_path, image_blurhash`

// scanRecipe scans a sql.Row (or sql.Rows) into a domain.Recipe.
// Associations are loaded separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt     string
		updatedAt     string
		titleLower    string
		difficulty    string
		isPublic      int
		imagePath     sql.NullString
		imageBlurhash sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.OwnerID,
		&r.Title,
		&titleLower,
		&r.Description,
		&r.Instructions,
		&r.TimeMinutes,
		&difficulty,
		&r.Servings,
		&isPublic,
		&imagePath,
		&imageBlurhash,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	r.Difficulty = domain.Difficulty(difficulty)
	r.IsPublic = isPublic != 0

	if imagePath.Valid {
		r.ImagePath = imagePath.String
	}
	if imageBlurhash.Valid {
		r.ImageBlurhash = imageBlurhash.String
	}

	return &r, nil
}

// CreateRecipe persists the recipe row, its tag associations, and its
// ingredient lines in one transaction. Tag and ingredient usage counters are
// adjusted inside the same transaction so a failure rolls everything back.
func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe, tags []string, lines []store.IngredientLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, created_at, updated_at, owner_id, title, title_lower,
			description, instructions, time_minutes, difficulty, servings,
			is_public, image_path, image_blurhash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		formatTime(recipe.CreatedAt),
		formatTime(recipe.UpdatedAt),
		recipe.OwnerID,
		recipe.Title,
		strings.ToLower(recipe.Title),
		recipe.Description,
		recipe.Instructions,
		recipe.TimeMinutes,
		string(recipe.Difficulty),
		recipe.Servings,
		boolToInt(recipe.IsPublic),
		nullString(recipe.ImagePath),
		nullString(recipe.ImageBlurhash),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	if err := associateTagsTx(ctx, tx, recipe.ID, tags); err != nil {
		return err
	}
	if err := associateIngredientsTx(ctx, tx, recipe.ID, lines); err != nil {
		return err
	}

	return tx.Commit()
}

// associateTagsTx get-or-creates each tag and links it to the recipe.
func associateTagsTx(ctx context.Context, tx *sql.Tx, recipeID string, tags []string) error {
	now := formatTime(time.Now())
	for _, name := range tags {
		tagID, err := getOrCreateTagTx(ctx, tx, name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			recipeID, tagID, now)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// associateIngredientsTx get-or-creates each ingredient and inserts the
// recipe's ingredient line rows in submission order.
func associateIngredientsTx(ctx context.Context, tx *sql.Tx, recipeID string, lines []store.IngredientLine) error {
	for i, line := range lines {
		ingredientID, err := getOrCreateIngredientTx(ctx, tx, line.Name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, notes, position)
			VALUES (?, ?, ?, ?, ?)`,
			recipeID, ingredientID, line.Quantity, line.Notes, i)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GetRecipe retrieves a recipe with its tags and ingredient lines.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the recipes visible to the caller, filtered and
// ordered, with associations populated. Visibility scoping and filters are
// applied in a single SQL query.
func (s *Store) ListRecipes(ctx context.Context, caller store.Caller, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE 1=1`
	var args []any

	// Visibility scope.
	switch {
	case caller.IsSuperuser:
		// All recipes.
	case caller.Anonymous():
		query += ` AND is_public = 1`
	default:
		query += ` AND (is_public = 1 OR owner_id = ?)`
		args = append(args, caller.UserID)
	}

	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.PublicOnly {
		query += ` AND is_public = 1`
	}
	if filter.Difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, filter.Difficulty)
	}
	if filter.MaxTime > 0 {
		query += ` AND time_minutes <= ?`
		args = append(args, filter.MaxTime)
	}
	if filter.MinServings > 0 {
		query += ` AND servings >= ?`
		args = append(args, filter.MinServings)
	}
	if len(filter.Tags) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = recipes.id AND t.name IN (` + placeholders(len(filter.Tags)) + `))`
		for _, name := range filter.Tags {
			args = append(args, name)
		}
	}
	if len(filter.Ingredients) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			JOIN ingredients i ON i.id = ri.ingredient_id
			WHERE ri.recipe_id = recipes.id AND i.name IN (` + placeholders(len(filter.Ingredients)) + `))`
		for _, name := range filter.Ingredients {
			args = append(args, name)
		}
	}
	if filter.Search != "" {
		query += ` AND (title LIKE ? OR description LIKE ? OR instructions LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query += recipeOrderClause(filter.Ordering)

	limit := filter.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	if limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// recipeOrderClause maps a RecipeFilter.Ordering value to a safe ORDER BY
// clause. Column names are whitelisted.
func recipeOrderClause(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	col := strings.TrimPrefix(ordering, "-")

	switch col {
	case "title", "time_minutes", "created_at":
	default:
		return ` ORDER BY created_at DESC, id ASC`
	}

	clause := ` ORDER BY ` + col
	if desc {
		clause += ` DESC`
	} else {
		clause += ` ASC`
	}
	return clause + `, id ASC`
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// loadAssociations populates Tags and Ingredients on the given recipes with
// two batch queries.
func (s *Store) loadAssociations(ctx context.Context, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Recipe, len(recipes))
	ids := make([]any, 0, len(recipes))
	for _, r := range recipes {
		r.Tags = []*domain.Tag{}
		r.Ingredients = []*domain.RecipeIngredient{}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	ph := placeholders(len(ids))

	// Tags.
	rows, err := s.db.QueryContext(ctx, `
		SELECT rt.recipe_id, `+prefixColumns("t", tagColumns)+`
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+ph+`)
		ORDER BY t.name ASC`, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var t domain.Tag
		var createdAt, updatedAt string
		if err := rows.Scan(&recipeID, &t.ID, &createdAt, &updatedAt, &t.Name, &t.Slug, &t.UsageCount); err != nil {
			return err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return err
		}
		if r, ok := byID[recipeID]; ok {
			r.Tags = append(r.Tags, &t)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Ingredient lines.
	ingRows, err := s.db.QueryContext(ctx, `
		SELECT ri.recipe_id, ri.ingredient_id, i.name, ri.quantity, ri.notes
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+ph+`)
		ORDER BY ri.recipe_id, ri.position ASC`, ids...)
	if err != nil {
		return err
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var recipeID string
		var line domain.RecipeIngredient
		if err := ingRows.Scan(&recipeID, &line.IngredientID, &line.Name, &line.Quantity, &line.Notes); err != nil {
			return err
		}
		if r, ok := byID[recipeID]; ok {
			r.Ingredients = append(r.Ingredients, &line)
		}
	}
	return ingRows.Err()
}

// prefixColumns prefixes each column in a comma-separated list with a table
// alias for use in JOIN queries.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// UpdateRecipe writes the recipe's scalar fields and replays the provided
// associations in one transaction.
//
// The replay is not a diff: every current association is released and the
// new list is re-created with fresh usage increments, so an unchanged tag or
// ingredient still gains a net usage increment per update. That mirrors the
// system's long-standing counter behavior; the counters are advisory.
func (s *Store) UpdateRecipe(ctx context.Context, recipe *domain.Recipe, replay store.AssociationReplay) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			updated_at = ?,
			title = ?,
			title_lower = ?,
			description = ?,
			instructions = ?,
			time_minutes = ?,
			difficulty = ?,
			servings = ?,
			is_public = ?
		WHERE id = ?`,
		formatTime(recipe.UpdatedAt),
		recipe.Title,
		strings.ToLower(recipe.Title),
		recipe.Description,
		recipe.Instructions,
		recipe.TimeMinutes,
		string(recipe.Difficulty),
		recipe.Servings,
		boolToInt(recipe.IsPublic),
		recipe.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	if replay.TagsProvided {
		if err := clearRecipeTagsTx(ctx, tx, recipe.ID); err != nil {
			return err
		}
		if err := associateTagsTx(ctx, tx, recipe.ID, replay.Tags); err != nil {
			return err
		}
	}
	if replay.IngredientsProvided {
		if err := clearRecipeIngredientsTx(ctx, tx, recipe.ID); err != nil {
			return err
		}
		if err := associateIngredientsTx(ctx, tx, recipe.ID, replay.Ingredients); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// clearRecipeTagsTx releases usage on all tags currently associated with the
// recipe and removes the association rows.
func clearRecipeTagsTx(ctx context.Context, tx *sql.Tx, recipeID string) error {
	tagIDs, err := collectIDs(ctx, tx,
		`SELECT tag_id FROM recipe_tags WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := releaseTagTx(ctx, tx, tagID); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID)
	return err
}

// clearRecipeIngredientsTx releases usage on all of the recipe's ingredients
// and deletes its ingredient line rows.
func clearRecipeIngredientsTx(ctx context.Context, tx *sql.Tx, recipeID string) error {
	ingredientIDs, err := collectIDs(ctx, tx,
		`SELECT ingredient_id FROM recipe_ingredients WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return err
	}
	for _, ingredientID := range ingredientIDs {
		if err := releaseIngredientTx(ctx, tx, ingredientID); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID)
	return err
}

// collectIDs runs a single-column query and returns the values.
func collectIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRecipe removes the recipe, decrementing usage on every associated
// tag and ingredient in the same transaction. Association rows cascade.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearRecipeTagsTx(ctx, tx, id); err != nil {
		return err
	}
	if err := clearRecipeIngredientsTx(ctx, tx, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

// SetRecipeImage records the stored image path and blurhash placeholder.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) SetRecipeImage(ctx context.Context, id, path, blurhash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET image_path = ?, image_blurhash = ?, updated_at = ?
		WHERE id = ?`,
		nullString(path), nullString(blurhash), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}
