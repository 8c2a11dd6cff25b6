package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/platefulapp/plateful-server/internal/domain"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/normalize"
	"github.com/platefulapp/plateful-server/internal/store"
)

// TagService exposes the shared tag catalog.
// Tags are normally created implicitly through recipe writes; direct creation
// is a moderation action reserved for superusers.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTagsRequest holds the query parameters for tag listings.
type ListTagsRequest struct {
	UsedOnly bool
	Search   string
	Ordering string
}

// tagOrderings is the whitelist of sortable tag fields.
var tagOrderings = map[string]bool{
	"name":        true,
	"usage_count": true,
	"created_at":  true,
}

// List returns tags matching the filter. Public, no authentication needed.
func (s *TagService) List(ctx context.Context, req ListTagsRequest) ([]*domain.Tag, error) {
	if err := checkOrdering(req.Ordering, tagOrderings); err != nil {
		return nil, err
	}

	tags, err := s.store.ListTags(ctx, store.CatalogFilter{
		UsedOnly: req.UsedOnly,
		Search:   req.Search,
		Ordering: req.Ordering,
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CreateTagRequest holds the payload for direct tag creation.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

// Create adds a tag to the catalog with usage_count 0.
// Superusers only; the name is normalized before the uniqueness check.
func (s *TagService) Create(ctx context.Context, caller *domain.User, req CreateTagRequest) (*domain.Tag, error) {
	if caller == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if !caller.CanModerate() {
		return nil, domainerrors.Forbidden("only superusers may create tags directly")
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	name := normalize.Name(req.Name)
	if len(name) < domain.TagNameMinLen || len(name) > domain.TagNameMaxLen {
		return nil, domainerrors.Validationf("tag name must be between %d and %d characters",
			domain.TagNameMinLen, domain.TagNameMaxLen)
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{
		Model: domain.Model{ID: tagID},
		Name:  name,
		Slug:  normalize.Slug(name),
	}
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExistsf("tag %q already exists", name)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Info("Tag created", "tag_id", tag.ID, "name", tag.Name, "by", caller.ID)
	return tag, nil
}

// checkOrdering validates an ordering parameter against a field whitelist.
// The "-" descending prefix is stripped before the check.
func checkOrdering(ordering string, allowed map[string]bool) error {
	if ordering == "" {
		return nil
	}
	field := ordering
	if field[0] == '-' {
		field = field[1:]
	}
	if !allowed[field] {
		return domainerrors.Validationf("invalid ordering %q", ordering)
	}
	return nil
}
