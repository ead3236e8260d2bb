package auth

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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inkpress/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{})
	return db
}

func setupTestRouter(authModule *AuthModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetHTMLTemplate(template.Must(template.New("").Parse(
		`{{define "auth_register.html"}}register{{end}}` +
			`{{define "auth_login.html"}}login{{end}}`)))
	authModule.RegisterRoutes(router)
	return router
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_FirstUserSucceeds(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	w := postForm(router, "/register", url.Values{
		"password":         {"hunter22"},
		"password_confirm": {"hunter22"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegister_SecondUserRefused(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	postForm(router, "/register", url.Values{
		"password":         {"hunter22"},
		"password_confirm": {"hunter22"},
	})
	w := postForm(router, "/register", url.Values{
		"password":         {"other"},
		"password_confirm": {"other"},
	})

	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	w := postForm(router, "/register", url.Values{
		"password":         {"hunter22"},
		"password_confirm": {"hunter23"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestLogin_CorrectPassword(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	hash, err := hashPassword("hunter22")
	assert.NoError(t, err)
	db.Create(&models.User{PasswordHash: hash})

	w := postForm(router, "/login", url.Values{"password": {"hunter22"}})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
}

func TestLogin_WrongPassword(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	hash, _ := hashPassword("hunter22")
	db.Create(&models.User{PasswordHash: hash})

	w := postForm(router, "/login", url.Values{"password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_NextMustBeLocal(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	hash, _ := hashPassword("hunter22")
	db.Create(&models.User{PasswordHash: hash})

	// Absolute URLs and protocol-relative "//host" targets both fall back
	// to the homepage.
	for _, next := range []string{"https://evil.example", "//evil.example", "//evil.example/path"} {
		w := postForm(router, "/login?next="+url.QueryEscape(next), url.Values{"password": {"hunter22"}})

		assert.Equal(t, http.StatusFound, w.Code, next)
		assert.Equal(t, "/", w.Header().Get("Location"), next)
	}
}

func TestLogin_LocalNextAccepted(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	hash, _ := hashPassword("hunter22")
	db.Create(&models.User{PasswordHash: hash})

	w := postForm(router, "/login?next=%2Fdrafts", url.Values{"password": {"hunter22"}})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/drafts", w.Header().Get("Location"))
}

func TestLoginPage_NoUserRedirectsToRegister(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	req, _ := http.NewRequest("GET", "/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/register", w.Header().Get("Location"))
}

func TestRequireAuth_Unauthorized(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewAuthModule(db))

	req, _ := http.NewRequest("GET", "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := hashPassword("secret")
	assert.NoError(t, err)
	assert.True(t, checkPasswordHash("secret", hash))
	assert.False(t, checkPasswordHash("other", hash))
}
