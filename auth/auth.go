// Package auth implements the single-admin authentication flow: one user
// registers once as the blog owner, then logs in and out with a session
// cookie.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkpress/models"
)

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/register", a.registerPage)
	router.POST("/register", a.registerPost)
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/logout", RequireAuth, a.logout)
}

// RequireAuth guards admin routes; anonymous requests are sent to /login.
func RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	c.Set("user_id", userID)
	c.Next()
}

// LoggedIn reports whether the request carries an authenticated session.
// Used by read paths that show drafts only to the owner.
func LoggedIn(c *gin.Context) bool {
	return sessions.Default(c).Get("user_id") != nil
}

func (a *AuthModule) registerPage(c *gin.Context) {
	var existing models.User
	if err := a.db.First(&existing).Error; err == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.HTML(http.StatusOK, "auth_register.html", gin.H{"title": "Register"})
}

// registerPost creates the blog owner. Only the first registration is
// accepted; afterwards the route refuses new accounts.
func (a *AuthModule) registerPost(c *gin.Context) {
	var existing models.User
	if err := a.db.First(&existing).Error; err == nil {
		c.HTML(http.StatusForbidden, "auth_register.html", gin.H{
			"title": "Register",
			"error": "Someone has already registered as the owner of this blog.",
		})
		return
	}

	password := c.PostForm("password")
	confirm := c.PostForm("password_confirm")
	if password == "" || password != confirm {
		c.HTML(http.StatusBadRequest, "auth_register.html", gin.H{
			"title": "Register",
			"error": "Passwords must match and cannot be empty.",
		})
		return
	}

	hash, err := hashPassword(password)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "auth_register.html", gin.H{
			"title": "Register",
			"error": "Could not create the account.",
		})
		return
	}

	if err := a.db.Create(&models.User{PasswordHash: hash}).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "auth_register.html", gin.H{
			"title": "Register",
			"error": "Could not create the account.",
		})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if LoggedIn(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	var user models.User
	if err := a.db.First(&user).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		c.Redirect(http.StatusFound, "/register")
		return
	}

	c.HTML(http.StatusOK, "auth_login.html", gin.H{"title": "Sign In"})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	var user models.User
	if err := a.db.First(&user).Error; err != nil {
		c.Redirect(http.StatusFound, "/register")
		return
	}

	if !checkPasswordHash(c.PostForm("password"), user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "auth_login.html", gin.H{
			"title": "Sign In",
			"error": "Incorrect password.",
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	// Only site-local targets; "//host" is a protocol-relative redirect.
	next := c.Query("next")
	if next == "" || next[0] != '/' || strings.HasPrefix(next, "//") {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/login")
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
