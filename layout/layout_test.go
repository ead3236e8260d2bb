package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inkpress/controls"
	"inkpress/models"
	"inkpress/sidebar"
	"inkpress/widgets"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.Post{}, &models.Category{}, &models.PostCategory{},
		&models.ContentWidget{}, &models.WidgetOrder{},
		&models.SearchBarSetting{}, &models.CategoryDisplaySetting{}, &models.Social{})
	return db
}

func TestBuild_DefaultSite(t *testing.T) {
	db := setupTestDB()
	assert.NoError(t, controls.EnsureDefaults(db))

	layout := Build(db)

	assert.Equal(t, controls.PlacementNavbar, layout.SearchBarPlacement)
	assert.Equal(t, controls.PresenceSidebarAndPosts, layout.CategoryPresence)
	assert.Len(t, layout.Widgets, 1)
	assert.Equal(t, sidebar.KindCategoryList, layout.Widgets[0].Kind)
	assert.Len(t, layout.Socials, len(controls.SocialServices))
}

func TestBuild_WidgetsFollowLedgerOrder(t *testing.T) {
	db := setupTestDB()
	assert.NoError(t, controls.EnsureDefaults(db))
	assert.NoError(t, controls.SetSearchBarPlacement(db, controls.PlacementSidebar))

	_, err := widgets.Create(db, "About", "Hello **there**.", true)
	assert.NoError(t, err)

	layout := Build(db)

	assert.Len(t, layout.Widgets, 3)
	assert.Equal(t, sidebar.KindCategoryList, layout.Widgets[0].Kind)
	assert.Equal(t, sidebar.KindSearchBar, layout.Widgets[1].Kind)
	assert.Equal(t, sidebar.KindContent, layout.Widgets[2].Kind)
	assert.Contains(t, string(layout.Widgets[2].HTML), "<strong>there</strong>")
}

func TestBuild_CategoryCounts(t *testing.T) {
	db := setupTestDB()
	assert.NoError(t, controls.EnsureDefaults(db))

	cat := models.Category{Name: "go", Slug: "go"}
	db.Create(&cat)
	db.Create(&models.Post{
		Title: "Post", Slug: "post", Content: "x",
		IsPublished: true, Categories: []models.Category{cat},
	})

	layout := Build(db)

	assert.Len(t, layout.Widgets, 1)
	assert.Equal(t, int64(1), layout.Widgets[0].Counts["go"].Count)
}

func TestBuild_EmptySidebar(t *testing.T) {
	db := setupTestDB()
	assert.NoError(t, controls.EnsureDefaults(db))
	assert.NoError(t, controls.SetCategoryDisplay(db, controls.PresenceDisabled))

	layout := Build(db)

	assert.Empty(t, layout.Widgets)
	assert.Equal(t, controls.PresenceDisabled, layout.CategoryPresence)
}
