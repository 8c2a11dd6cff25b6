package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/store"
)

// newTestStore creates a store backed by a temp database, cleaned up with
// the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

// makeTestUser creates an active user for tests that need an owner.
func makeTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		IsActive:     true,
	}
	user.ID = id.MustGenerate("user")
	user.InitTimestamps()

	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

// makeTestRecipe builds an unsaved recipe owned by the given user.
func makeTestRecipe(ownerID, title string) *domain.Recipe {
	r := &domain.Recipe{
		OwnerID:      ownerID,
		Title:        title,
		Description:  "a test recipe",
		Instructions: "mix everything together and cook",
		TimeMinutes:  20,
		Difficulty:   domain.DifficultyEasy,
		Servings:     2,
		IsPublic:     true,
	}
	r.ID = id.MustGenerate("recipe")
	r.InitTimestamps()
	return r
}

func TestOpen_AppliesSchema(t *testing.T) {
	s := newTestStore(t)

	// Schema should be idempotent: applying twice must not error.
	if _, err := s.db.Exec(schemaSQL); err != nil {
		t.Fatalf("reapplying schema: %v", err)
	}
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recipe := makeTestRecipe("user-missing", "Orphan")
	err := s.CreateRecipe(ctx, recipe, nil, nil)
	if err == nil {
		t.Fatal("CreateRecipe() with missing owner should fail")
	}
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Now()
	parsed, err := parseTime(formatTime(now))
	if err != nil {
		t.Fatalf("parseTime() error = %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("round trip changed time: got %v, want %v", parsed, now)
	}
}

func TestStore_ImplementsInterface(t *testing.T) {
	var _ store.Store = (*Store)(nil)
}
