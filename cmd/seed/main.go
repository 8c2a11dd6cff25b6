// Package main provides a tool to seed the database for local development.
//
// It creates a superuser from flags and, with --sample-data, a couple of
// verified test accounts with recipes so list filters, tag usage counters,
// and visibility rules have something to chew on.
//
// Usage:
//
//	DATA_PATH=~/Plateful/data go run ./cmd/seed --email admin@example.com --password secret-pass-1
//	DATA_PATH=~/Plateful/data go run ./cmd/seed --email admin@example.com --password secret-pass-1 --sample-data
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/platefulapp/plateful-server/internal/auth"
	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/platefulapp/plateful-server/internal/store/sqlite"
)

var (
	email      = flag.String("email", "", "Superuser email (required)")
	password   = flag.String("password", "", "Superuser password (required)")
	name       = flag.String("name", "Admin", "Superuser display name")
	sampleData = flag.Bool("sample-data", false, "Also create test users with sample recipes")
)

func main() {
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed --email <email> --password <password> [--name <name>] [--sample-data]")
		os.Exit(1)
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Plateful/data")
	}
	dbPath := filepath.Join(dataPath, "plateful.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.DiscardHandler)
	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if err := createSuperuser(ctx, s, *email, *password, *name); err != nil {
		log.Fatalf("Failed to create superuser: %v", err)
	}

	if *sampleData {
		if err := createSampleData(ctx, s); err != nil {
			log.Fatalf("Failed to create sample data: %v", err)
		}
	}

	fmt.Println("Seeding complete!")
}

// createSuperuser inserts an already-verified superuser account. An existing
// account with the same email is left untouched.
func createSuperuser(ctx context.Context, s *sqlite.Store, email, password, name string) error {
	if existing, _ := s.GetUserByEmail(ctx, email); existing != nil {
		fmt.Printf("User %s already exists, skipping superuser creation\n", email)
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	userID, err := id.Generate("user")
	if err != nil {
		return err
	}

	user := &domain.User{
		Model:        domain.Model{ID: userID},
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Created superuser: %s (%s)\n", name, email)
	return nil
}

// sampleRecipe pairs a recipe with its catalog associations.
type sampleRecipe struct {
	recipe domain.Recipe
	tags   []string
	lines  []store.IngredientLine
}

var sampleRecipes = []sampleRecipe{
	{
		recipe: domain.Recipe{
			Title:        "Lentil Soup",
			Description:  "A weeknight staple.",
			Instructions: "Soften the onions, add lentils and stock, simmer 30 minutes.",
			TimeMinutes:  45,
			Difficulty:   domain.DifficultyEasy,
			Servings:     4,
			IsPublic:     true,
		},
		tags: []string{"soup", "comfort food", "vegetarian"},
		lines: []store.IngredientLine{
			{Name: "red lentils", Quantity: "200 g"},
			{Name: "onion", Quantity: "1", Notes: "finely diced"},
			{Name: "vegetable stock", Quantity: "1 l"},
		},
	},
	{
		recipe: domain.Recipe{
			Title:        "Shakshuka",
			Description:  "Eggs poached in spiced tomato sauce.",
			Instructions: "Reduce the tomatoes with paprika and cumin, crack in the eggs, cover until just set.",
			TimeMinutes:  30,
			Difficulty:   domain.DifficultyMedium,
			Servings:     2,
			IsPublic:     true,
		},
		tags: []string{"breakfast", "vegetarian"},
		lines: []store.IngredientLine{
			{Name: "eggs", Quantity: "4"},
			{Name: "canned tomatoes", Quantity: "400 g"},
			{Name: "onion", Quantity: "1"},
		},
	},
	{
		recipe: domain.Recipe{
			Title:        "Weekend Ragu",
			Description:  "Slow-cooked, worth the wait.",
			Instructions: "Brown the meat in batches, deglaze, and simmer with tomatoes for three hours.",
			TimeMinutes:  200,
			Difficulty:   domain.DifficultyHard,
			Servings:     6,
			IsPublic:     false,
		},
		tags: []string{"pasta", "comfort food"},
		lines: []store.IngredientLine{
			{Name: "beef chuck", Quantity: "1 kg", Notes: "cut into chunks"},
			{Name: "canned tomatoes", Quantity: "800 g"},
			{Name: "red wine", Quantity: "250 ml"},
		},
	},
}

// createSampleData creates two verified test users and spreads the sample
// recipes between them. Shared tags and ingredients are get-or-created by the
// store, so running this against an existing catalog only bumps usage counts.
func createSampleData(ctx context.Context, s *sqlite.Store) error {
	fmt.Println("Creating sample data...")

	testUsers := []struct{ email, name string }{
		{"alex@example.com", "Alex Rivera"},
		{"jordan@example.com", "Jordan Chen"},
	}

	hash, err := auth.HashPassword("testpass-123")
	if err != nil {
		return err
	}

	owners := make([]*domain.User, 0, len(testUsers))
	for _, tu := range testUsers {
		if existing, getErr := s.GetUserByEmail(ctx, tu.email); getErr == nil {
			fmt.Printf("  User %s already exists, reusing\n", tu.email)
			owners = append(owners, existing)
			continue
		}

		userID, idErr := id.Generate("user")
		if idErr != nil {
			return idErr
		}

		user := &domain.User{
			Model:        domain.Model{ID: userID},
			Email:        tu.email,
			Name:         tu.name,
			PasswordHash: hash,
			IsActive:     true,
		}
		user.InitTimestamps()

		if createErr := s.CreateUser(ctx, user); createErr != nil {
			return createErr
		}
		fmt.Printf("  Created user: %s (%s)\n", tu.name, tu.email)
		owners = append(owners, user)
	}

	for i, sample := range sampleRecipes {
		recipe := sample.recipe
		recipeID, idErr := id.Generate("recipe")
		if idErr != nil {
			return idErr
		}
		recipe.ID = recipeID
		recipe.OwnerID = owners[i%len(owners)].ID
		recipe.InitTimestamps()

		err := s.CreateRecipe(ctx, &recipe, sample.tags, sample.lines)
		if errors.Is(err, store.ErrAlreadyExists) {
			fmt.Printf("  Recipe %q already exists for this owner, skipping\n", recipe.Title)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("  Created recipe: %s (owner %s)\n", recipe.Title, recipe.OwnerID)
	}

	return nil
}
