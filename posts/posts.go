// Package posts implements the blog entries and standalone pages: the
// public read side and the admin write side. Every write follows the same
// protocol inside one transaction: commit the domain row, attach the
// resolved categories, then sweep the categories the edit orphaned.
package posts

import (
	"bytes"
	"errors"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"inkpress/categories"
	"inkpress/common"
	"inkpress/models"
)

// ErrTitleTaken signals that another entry already owns the submitted
// title's slug.
var ErrTitleTaken = errors.New("posts: this title is already in use")

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

// Save persists a new or edited entry together with its category list.
// The row is written first; only then are categories attached and the
// orphan sweep run, so a title conflict rolls everything back untouched.
func Save(db *gorm.DB, post *models.Post, categoryNames []string) error {
	post.Slug = common.Slugify(post.Title)

	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		err := tx.Where("slug = ? AND id <> ?", post.Slug, post.ID).First(&existing).Error
		if err == nil {
			return ErrTitleTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		store := categories.NewStore(tx)
		resolved, err := store.Resolve(categoryNames)
		if err != nil {
			return err
		}

		if err := tx.Save(post).Error; err != nil {
			return err
		}
		assoc := tx.Model(post).Association("Categories")
		if len(resolved) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(&resolved); err != nil {
			return err
		}
		post.Categories = resolved

		return store.SweepOrphans()
	})
}

// Delete removes an entry, detaches its categories and sweeps the ones the
// deletion stranded.
func Delete(db *gorm.DB, post *models.Post) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(post).Error; err != nil {
			return err
		}
		return categories.NewStore(tx).SweepOrphans()
	})
}

// BySlug fetches one entry with its categories preloaded.
func BySlug(db *gorm.DB, slug string) (*models.Post, error) {
	var post models.Post
	err := db.Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("categories.name")
	}).Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(buf.String())
}
