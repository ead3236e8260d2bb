// Package categories owns the category tag lifecycle: creation on demand
// while resolving a post's submitted tags, reuse by exact name, and deletion
// of categories no post references anymore.
package categories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"inkpress/common"
	"inkpress/models"
)

// ReservedName is never stored as a real category; posts without categories
// are grouped under it at display time.
const ReservedName = "uncategorized"

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Resolve maps the submitted tag names to category entities. Blank names and
// the reserved "uncategorized" literal are dropped, an existing category is
// reused as-is, anything else becomes a fresh unsaved category with a derived
// slug. Nothing is written here; the categories are persisted when the caller
// attaches them to a post.
func (s *Store) Resolve(names []string) ([]models.Category, error) {
	seen := make(map[string]bool, len(names))
	var resolved []models.Category

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == ReservedName || seen[name] {
			continue
		}
		seen[name] = true

		var existing models.Category
		err := s.db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			resolved = append(resolved, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		resolved = append(resolved, models.Category{
			Name: name,
			Slug: common.Slugify(name),
		})
	}

	return resolved, nil
}

// SweepOrphans deletes every category with no associated posts. Safe to call
// when nothing is orphaned; callers run it right after the edit that may have
// stranded a category, on the same transaction handle.
func (s *Store) SweepOrphans() error {
	return s.db.
		Where("id NOT IN (SELECT category_id FROM post_category)").
		Delete(&models.Category{}).Error
}

// CategoryCount pairs a category's slug with its published post count.
type CategoryCount struct {
	Slug  string
	Count int64
}

// PostCountByCategory counts published, non-page posts per category, keyed by
// category name. Posts without any category are grouped under the synthetic
// "uncategorized" entry, included only when the count is positive.
func (s *Store) PostCountByCategory() (map[string]CategoryCount, error) {
	counts := make(map[string]CategoryCount)

	var cats []models.Category
	if err := s.db.Find(&cats).Error; err != nil {
		return nil, err
	}

	for _, c := range cats {
		var count int64
		err := s.db.Model(&models.Post{}).
			Joins("JOIN post_category ON post_category.post_id = posts.id").
			Where("post_category.category_id = ? AND posts.is_published = ? AND posts.is_page = ?",
				c.ID, true, false).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			counts[c.Name] = CategoryCount{Slug: c.Slug, Count: count}
		}
	}

	var uncategorized int64
	err := s.db.Model(&models.Post{}).
		Where("is_published = ? AND is_page = ?", true, false).
		Where("id NOT IN (SELECT post_id FROM post_category)").
		Count(&uncategorized).Error
	if err != nil {
		return nil, err
	}
	if uncategorized > 0 {
		counts[ReservedName] = CategoryCount{Slug: ReservedName, Count: uncategorized}
	}

	return counts, nil
}

// BySlug looks up a single category. Missing slugs are a hard failure here,
// unlike the cleanup paths.
func (s *Store) BySlug(slug string) (*models.Category, error) {
	var c models.Category
	if err := s.db.Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
