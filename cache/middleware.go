package cache

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inkpress/auth"
)

// Routes that live next to the post slugs and must never be cached.
var skipPrefixes = []string{
	"/search", "/drafts", "/category/", "/sitemap.xml",
	"/create_post", "/create_page", "/content_widgets",
	"/controls", "/login", "/logout", "/register", "/static",
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware caches rendered post detail pages. Only anonymous GET
// requests for single-segment slug paths participate.
func Middleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Next()
			return
		}

		slug := postSlug(c.Request.URL.Path)
		if slug == "" {
			c.Next()
			return
		}

		// A logged in admin sees drafts and edit affordances, so their
		// responses must not land in the shared cache.
		if auth.LoggedIn(c) {
			c.Next()
			return
		}

		if cached, found := Read(slug, maxAge); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK &&
			c.Writer.Header().Get("Content-Type") == "text/html; charset=utf-8" {
			Write(slug, writer.body.String())
		}
	}
}

// postSlug returns the slug when the path is a single-segment post page,
// empty otherwise.
func postSlug(path string) string {
	if path == "/" || len(path) < 2 || path[0] != '/' {
		return ""
	}

	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ""
		}
	}

	slug := path[1:]
	if strings.Contains(slug, "/") {
		return ""
	}

	return slug
}
