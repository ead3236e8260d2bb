package posts

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"inkpress/controls"
	"inkpress/models"
)

func setupRoutesDB() *gorm.DB {
	db := setupTestDB()
	db.AutoMigrate(&models.ContentWidget{}, &models.WidgetOrder{},
		&models.SearchBarSetting{}, &models.CategoryDisplaySetting{}, &models.Social{})
	if err := controls.EnsureDefaults(db); err != nil {
		panic(err)
	}
	return db
}

func setupTestRouter(m *PostsModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetHTMLTemplate(template.Must(template.New("").Parse(
		`{{define "index.html"}}{{.title}}: {{range .posts}}[{{.Title}}]{{end}}{{end}}` +
			`{{define "detail.html"}}{{.post.Title}}{{end}}` +
			`{{define "create.html"}}create{{end}}` +
			`{{define "delete.html"}}delete{{end}}` +
			`{{define "404.html"}}not found{{end}}` +
			`{{define "500.html"}}error{{end}}`)))
	// Test-only login endpoint so the auth guard sees a session.
	router.GET("/test_login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("user_id", uint(1))
		session.Save()
		c.Status(http.StatusOK)
	})

	m.RegisterRoutes(router)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginCookie(router *gin.Engine) string {
	w := get(router, "/test_login")
	return w.Header().Get("Set-Cookie")
}

func postFormAs(router *gin.Engine, cookie, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIndex_ShowsOnlyPublishedPosts(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Published", Content: "a", IsPublished: true}, nil))
	assert.NoError(t, Save(db, &models.Post{Title: "Draft", Content: "b"}, nil))
	assert.NoError(t, Save(db, &models.Post{Title: "A Page", Content: "c", IsPage: true, IsPublished: true}, nil))

	w := get(router, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Published]")
	assert.NotContains(t, w.Body.String(), "[Draft]")
	assert.NotContains(t, w.Body.String(), "[A Page]")
}

func TestDetail_DraftHiddenFromAnonymous(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Draft Post", Content: "wip"}, nil))

	w := get(router, "/draft-post")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDetail_PublishedVisible(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Hello", Content: "hi", IsPublished: true}, nil))

	w := get(router, "/hello")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")
}

func TestSearch_DisabledIs404(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, controls.SetSearchBarPlacement(db, controls.PlacementDisabled))

	w := get(router, "/search?q=anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch_ShortQueryRejected(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	w := get(router, "/search?q=ab")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_MatchesTitleAndContent(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Gopher News", Content: "x", IsPublished: true}, nil))
	assert.NoError(t, Save(db, &models.Post{Title: "Other", Content: "all about gopher things", IsPublished: true}, nil))
	assert.NoError(t, Save(db, &models.Post{Title: "Unrelated", Content: "y", IsPublished: true}, nil))

	w := get(router, "/search?q=gopher")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Gopher News]")
	assert.Contains(t, w.Body.String(), "[Other]")
	assert.NotContains(t, w.Body.String(), "[Unrelated]")
}

func TestCategoryIndex_DisabledIs404(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, controls.SetCategoryDisplay(db, controls.PresenceDisabled))

	w := get(router, "/category/go")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryIndex_ListsMembers(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Tagged", Content: "a", IsPublished: true}, []string{"go"}))
	assert.NoError(t, Save(db, &models.Post{Title: "Loose", Content: "b", IsPublished: true}, nil))

	w := get(router, "/category/go")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Tagged]")
	assert.NotContains(t, w.Body.String(), "[Loose]")
}

func TestCategoryIndex_Uncategorized(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Tagged", Content: "a", IsPublished: true}, []string{"go"}))
	assert.NoError(t, Save(db, &models.Post{Title: "Loose", Content: "b", IsPublished: true}, nil))

	w := get(router, "/category/uncategorized")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Loose]")
	assert.NotContains(t, w.Body.String(), "[Tagged]")
}

func TestCategoryIndex_UnknownSlug(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	w := get(router, "/category/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSitemap_ListsPublished(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	assert.NoError(t, Save(db, &models.Post{Title: "Public", Content: "a", IsPublished: true}, nil))
	assert.NoError(t, Save(db, &models.Post{Title: "Hidden", Content: "b"}, nil))

	w := get(router, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, w.Body.String(), "/public</loc>")
	assert.NotContains(t, w.Body.String(), "/hidden</loc>")
}

func TestEditPost_EmptyTitleRejected(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))
	cookie := loginCookie(router)

	assert.NoError(t, Save(db, &models.Post{Title: "Hello", Content: "hi", IsPublished: true}, nil))

	w := postFormAs(router, cookie, "/hello/edit", url.Values{
		"title":   {""},
		"content": {"changed"},
		"publish": {"1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The rejected edit left the post untouched.
	stored, err := BySlug(db, "hello")
	assert.NoError(t, err)
	assert.Equal(t, "Hello", stored.Title)
	assert.Equal(t, "hi", stored.Content)
}

func TestEditPost_RenameChangesSlug(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))
	cookie := loginCookie(router)

	assert.NoError(t, Save(db, &models.Post{Title: "Hello", Content: "hi", IsPublished: true}, nil))

	w := postFormAs(router, cookie, "/hello/edit", url.Values{
		"title":   {"Hello Again"},
		"content": {"hi"},
		"publish": {"1"},
	})
	assert.Equal(t, http.StatusFound, w.Code)

	stored, err := BySlug(db, "hello-again")
	assert.NoError(t, err)
	assert.Equal(t, "Hello Again", stored.Title)
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	db := setupRoutesDB()
	router := setupTestRouter(NewPostsModule(db, nil))

	for _, path := range []string{"/drafts", "/create_post", "/some-post/edit", "/some-post/delete"} {
		w := get(router, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Contains(t, w.Header().Get("Location"), "/login")
	}
}
