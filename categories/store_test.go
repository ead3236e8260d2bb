package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inkpress/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.Post{}, &models.Category{}, &models.PostCategory{})
	return db
}

func createTestPost(db *gorm.DB, title string, published bool, cats ...models.Category) *models.Post {
	post := &models.Post{
		Title:       title,
		Slug:        title,
		Content:     "content",
		IsPublished: published,
		Categories:  cats,
	}
	db.Create(post)
	return post
}

func TestResolve_DropsBlankAndReserved(t *testing.T) {
	store := NewStore(setupTestDB())

	resolved, err := store.Resolve([]string{"", "uncategorized", "cats"})
	assert.NoError(t, err)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "cats", resolved[0].Name)
	assert.Equal(t, "cats", resolved[0].Slug)
}

func TestResolve_DropsDuplicates(t *testing.T) {
	store := NewStore(setupTestDB())

	resolved, err := store.Resolve([]string{"go", "go", " go "})
	assert.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestResolve_ReusesExistingByName(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	existing := models.Category{Name: "music", Slug: "music"}
	db.Create(&existing)

	resolved, err := store.Resolve([]string{"music", "books"})
	assert.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Equal(t, existing.ID, resolved[0].ID)
	assert.Zero(t, resolved[1].ID)

	// Resolving alone persists nothing.
	var count int64
	db.Model(&models.Category{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolve_SlugifiesNewNames(t *testing.T) {
	store := NewStore(setupTestDB())

	resolved, err := store.Resolve([]string{"Hot Takes"})
	assert.NoError(t, err)
	assert.Equal(t, "hot-takes", resolved[0].Slug)
}

func TestSweepOrphans(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	used := models.Category{Name: "used", Slug: "used"}
	orphan := models.Category{Name: "orphan", Slug: "orphan"}
	db.Create(&used)
	db.Create(&orphan)
	createTestPost(db, "post-1", true, used)

	assert.NoError(t, store.SweepOrphans())

	var remaining []models.Category
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "used", remaining[0].Name)
}

func TestSweepOrphans_NothingToDo(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	cat := models.Category{Name: "kept", Slug: "kept"}
	db.Create(&cat)
	createTestPost(db, "post-1", true, cat)

	assert.NoError(t, store.SweepOrphans())
	assert.NoError(t, store.SweepOrphans())

	var count int64
	db.Model(&models.Category{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPostCountByCategory(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	cat := models.Category{Name: "go", Slug: "go"}
	db.Create(&cat)
	createTestPost(db, "post-1", true, cat)
	createTestPost(db, "post-2", true, cat)
	createTestPost(db, "draft", false, cat)
	createTestPost(db, "loose", true)

	counts, err := store.PostCountByCategory()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), counts["go"].Count)
	assert.Equal(t, "go", counts["go"].Slug)
	assert.Equal(t, int64(1), counts[ReservedName].Count)
}

func TestPostCountByCategory_SkipsEmpty(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	cat := models.Category{Name: "draft-only", Slug: "draft-only"}
	db.Create(&cat)
	createTestPost(db, "draft", false, cat)

	counts, err := store.PostCountByCategory()
	assert.NoError(t, err)
	assert.NotContains(t, counts, "draft-only")
	assert.NotContains(t, counts, ReservedName)
}

func TestBySlug(t *testing.T) {
	db := setupTestDB()
	store := NewStore(db)

	db.Create(&models.Category{Name: "music", Slug: "music"})

	found, err := store.BySlug("music")
	assert.NoError(t, err)
	assert.Equal(t, "music", found.Name)

	_, err = store.BySlug("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
