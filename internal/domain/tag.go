package domain

// Tag name bounds enforced at the write boundary.
const (
	TagNameMinLen = 2
	TagNameMaxLen = 50
)

// Tag is a shared catalog entity for categorizing recipes.
// Names are stored normalized (trimmed, lowercase); Slug is the URL-safe
// form. UsageCount tracks how many recipes currently reference the tag and
// is advisory bookkeeping, never negative.
type Tag struct {
	Model
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	UsageCount int    `json:"usage_count"`
}

// InUse reports whether any recipe currently references the tag.
func (t *Tag) InUse() bool {
	return t.UsageCount > 0
}
