package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"inkpress/analytics"
	"inkpress/auth"
	"inkpress/cache"
	"inkpress/common"
	"inkpress/controls"
	"inkpress/database"
	"inkpress/email"
	"inkpress/posts"
	"inkpress/widgets"
)

func main() {
	common.LoadEnv()

	db := common.ConnectDb()
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := controls.EnsureDefaults(db); err != nil {
		log.Fatal("Failed to seed default settings:", err)
	}

	emailService := email.NewEmailService()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(recovery(emailService))

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("inkpress-session", store))

	if prefix := os.Getenv("URL_PREFIX"); prefix != "" {
		router.Use(common.PrefixMiddleware(prefix))
	}

	router.Use(cache.Middleware(10 * time.Minute))

	router.SetFuncMap(map[string]interface{}{
		"now": func() time.Time {
			return time.Now()
		},
	})

	router.LoadHTMLGlob("*/views/*.html")

	router.Static("/static", "./static")

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
	})

	authModule := auth.NewAuthModule(db)
	authModule.RegisterRoutes(router)

	analyticsModule := analytics.NewAnalyticsModule(common.ConnectAnalyticsDb())

	controlsModule := controls.NewControlsModule(db, analyticsModule)
	controlsModule.RegisterRoutes(router)

	widgetsModule := widgets.NewWidgetsModule(db)
	widgetsModule.RegisterRoutes(router)

	postsModule := posts.NewPostsModule(db, analyticsModule)
	postsModule.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// recovery turns panics into a 500 page and mails the admin about them.
func recovery(emailService *email.EmailService) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic serving %s: %v", c.Request.URL.Path, recovered)
		go emailService.SendErrorAlert(c.Request.URL.Path, recovered)
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		c.Abort()
	})
}
