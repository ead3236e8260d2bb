package common

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// PrefixMiddleware lets the blog run from a domain subdirectory, e.g.
// www.my-site.com/blog/ instead of www.my-site.com. Requests carrying the
// configured prefix are rewritten internally so the route table stays
// prefix-free.
func PrefixMiddleware(prefix string) gin.HandlerFunc {
	prefix = strings.TrimSuffix(prefix, "/")

	return func(c *gin.Context) {
		if prefix == "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			newPath := strings.TrimPrefix(path, prefix)
			if newPath == "" {
				newPath = "/"
			}

			c.Request.URL.Path = newPath
			c.Set("url_prefix", prefix)
			c.Set("original_path", path)
		}

		c.Next()
	}
}
