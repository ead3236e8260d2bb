// Package controls holds the site display settings and the admin screens
// that edit them. The two singleton settings also drive sidebar membership
// of the built-in widgets.
package controls

import (
	"errors"

	"gorm.io/gorm"

	"inkpress/cache"
	"inkpress/models"
	"inkpress/sidebar"
)

// Search bar placements.
const (
	PlacementNavbar   = "navbar"
	PlacementSidebar  = "sidebar"
	PlacementDisabled = "disabled"
)

// Category display modes.
const (
	PresenceSidebarAndPosts = "sidebar_and_posts"
	PresencePostsOnly       = "posts_only"
	PresenceDisabled        = "disabled"
)

var ErrInvalidChoice = errors.New("controls: not one of the offered choices")

// Social services offered on the socials screen, in display order. The
// second element is the input hint shown in the form.
var SocialServices = [][2]string{
	{"Twitter", "Enter profile URL..."},
	{"Facebook", "Enter profile URL..."},
	{"Pinterest", "Enter profile URL..."},
	{"LinkedIn", "Enter profile URL..."},
	{"RSS Feed", "Enter feed URL..."},
	{"Tumblr", "Enter profile URL..."},
	{"Patreon", "Enter profile URL..."},
	{"Telegram", "Enter profile URL..."},
	{"Github", "Enter profile URL..."},
	{"Instagram", "Enter profile URL..."},
	{"Youtube", "Enter profile URL..."},
	{"Email", "Enter email address..."},
}

// EnsureDefaults seeds the singleton settings the first time the app runs.
// Existing rows are left alone so an operator's choices survive restarts.
// Seeding the category setting also places the Category Widget in the
// sidebar, which is why the whole thing runs in one transaction.
func EnsureDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var sb models.SearchBarSetting
		if err := tx.First(&sb).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&models.SearchBarSetting{Placement: PlacementNavbar}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var cd models.CategoryDisplaySetting
		if err := tx.First(&cd).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&models.CategoryDisplaySetting{Presence: PresenceSidebarAndPosts}).Error; err != nil {
				return err
			}
			ledger := sidebar.NewLedger(tx)
			if err := ledger.Sync(sidebar.CategoryListRef(), sidebar.CategoryWidgetName, true); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Social{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, service := range SocialServices {
				if err := tx.Create(&models.Social{Name: service[0], Address: ""}).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// SetSearchBarPlacement stores the choice and reconciles the search bar's
// sidebar slot, atomically.
func SetSearchBarPlacement(db *gorm.DB, placement string) error {
	switch placement {
	case PlacementNavbar, PlacementSidebar, PlacementDisabled:
	default:
		return ErrInvalidChoice
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var setting models.SearchBarSetting
		if err := tx.First(&setting).Error; err != nil {
			return err
		}
		setting.Placement = placement
		if err := tx.Save(&setting).Error; err != nil {
			return err
		}

		ledger := sidebar.NewLedger(tx)
		return ledger.Sync(sidebar.SearchBarRef(), sidebar.SearchBarWidgetName,
			placement == PlacementSidebar)
	})
	if err != nil {
		return err
	}

	// Cached pages embed the sidebar, so a setting change stales them all.
	return cache.ClearAll()
}

// SetCategoryDisplay stores the choice and reconciles the category widget's
// sidebar slot, atomically.
func SetCategoryDisplay(db *gorm.DB, presence string) error {
	switch presence {
	case PresenceSidebarAndPosts, PresencePostsOnly, PresenceDisabled:
	default:
		return ErrInvalidChoice
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var setting models.CategoryDisplaySetting
		if err := tx.First(&setting).Error; err != nil {
			return err
		}
		setting.Presence = presence
		if err := tx.Save(&setting).Error; err != nil {
			return err
		}

		ledger := sidebar.NewLedger(tx)
		return ledger.Sync(sidebar.CategoryListRef(), sidebar.CategoryWidgetName,
			presence == PresenceSidebarAndPosts)
	})
	if err != nil {
		return err
	}

	return cache.ClearAll()
}
