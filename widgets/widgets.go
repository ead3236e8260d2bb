// Package widgets manages the user-authored sidebar content blocks. Every
// write reconciles the widget's sidebar slot in the same transaction, and
// only after the widget row itself committed cleanly, so a title conflict
// never leaves a half-synced sidebar behind.
package widgets

import (
	"errors"

	"gorm.io/gorm"

	"inkpress/cache"
	"inkpress/common"
	"inkpress/models"
	"inkpress/sidebar"
)

// ErrTitleTaken signals that another widget already owns the submitted
// title's slug.
var ErrTitleTaken = errors.New("widgets: this title is already in use")

// Create stores a new content widget and, when it is published, appends it
// to the sidebar.
func Create(db *gorm.DB, title, content string, published bool) (*models.ContentWidget, error) {
	widget := &models.ContentWidget{
		Title:       title,
		Slug:        common.Slugify(title),
		Content:     content,
		IsPublished: published,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.ContentWidget
		if err := tx.Where("slug = ?", widget.Slug).First(&existing).Error; err == nil {
			return ErrTitleTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(widget).Error; err != nil {
			return err
		}

		// Sidebar reconciliation stays after the create on purpose: a
		// failed commit must skip it.
		ledger := sidebar.NewLedger(tx)
		return ledger.Sync(sidebar.ContentRef(widget.ID), widget.Title, widget.IsPublished)
	})
	if err != nil {
		return nil, err
	}

	// Every cached page embeds the sidebar this widget may now sit in.
	if err := cache.ClearAll(); err != nil {
		return nil, err
	}
	return widget, nil
}

// Update edits an existing widget. A title change renames the sidebar slot
// in place; a publish-state change adds or removes it.
func Update(db *gorm.DB, widget *models.ContentWidget, title, content string, published bool) error {
	newSlug := common.Slugify(title)

	err := db.Transaction(func(tx *gorm.DB) error {
		if newSlug != widget.Slug {
			var existing models.ContentWidget
			err := tx.Where("slug = ? AND id <> ?", newSlug, widget.ID).First(&existing).Error
			if err == nil {
				return ErrTitleTaken
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		widget.Title = title
		widget.Slug = newSlug
		widget.Content = content
		widget.IsPublished = published
		if err := tx.Save(widget).Error; err != nil {
			return err
		}

		ledger := sidebar.NewLedger(tx)
		if err := ledger.Rename(sidebar.ContentRef(widget.ID), widget.Title); err != nil {
			return err
		}
		return ledger.Sync(sidebar.ContentRef(widget.ID), widget.Title, widget.IsPublished)
	})
	if err != nil {
		return err
	}

	return cache.ClearAll()
}

// Delete removes the widget and its sidebar slot, compacting the remaining
// positions.
func Delete(db *gorm.DB, widget *models.ContentWidget) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(widget).Error; err != nil {
			return err
		}

		ledger := sidebar.NewLedger(tx)
		return ledger.Sync(sidebar.ContentRef(widget.ID), widget.Title, false)
	})
	if err != nil {
		return err
	}

	return cache.ClearAll()
}

// BySlug fetches one widget; missing slugs are a hard failure.
func BySlug(db *gorm.DB, slug string) (*models.ContentWidget, error) {
	var widget models.ContentWidget
	if err := db.Where("slug = ?", slug).First(&widget).Error; err != nil {
		return nil, err
	}
	return &widget, nil
}
