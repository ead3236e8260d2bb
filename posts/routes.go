package posts

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkpress/analytics"
	"inkpress/auth"
	"inkpress/cache"
	"inkpress/categories"
	"inkpress/layout"
	"inkpress/models"
)

const postsPerPage = 10

// Search strings shorter than this are rejected before touching the db.
const minSearchLen = 3

type PostsModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
}

func NewPostsModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule) *PostsModule {
	return &PostsModule{db: db, analytics: analyticsModule}
}

func (m *PostsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", m.index)
	router.GET("/search", m.search)
	router.GET("/sitemap.xml", m.sitemap)
	router.GET("/category/:slug", m.categoryIndex)

	router.GET("/drafts", auth.RequireAuth, m.drafts)
	router.GET("/create_post", auth.RequireAuth, m.createPage)
	router.POST("/create_post", auth.RequireAuth, m.createPost)
	router.GET("/create_page", auth.RequireAuth, m.createPage)
	router.POST("/create_page", auth.RequireAuth, m.createPost)

	// The slug routes must stay after the static ones so route names are
	// not swallowed as slugs.
	router.GET("/:slug", m.detail)
	router.GET("/:slug/edit", auth.RequireAuth, m.editPage)
	router.POST("/:slug/edit", auth.RequireAuth, m.editPost)
	router.GET("/:slug/delete", auth.RequireAuth, m.deletePage)
	router.POST("/:slug/delete", auth.RequireAuth, m.deletePost)
}

func pageParam(c *gin.Context) int {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return page
}

func (m *PostsModule) listing(c *gin.Context, title string, query *gorm.DB) {
	page := pageParam(c)

	var posts []models.Post
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * postsPerPage).Limit(postsPerPage).
		Preload("Categories").
		Find(&posts).Error
	if err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":   title,
		"posts":   posts,
		"page":    page,
		"hasNext": len(posts) == postsPerPage,
		"layout":  layout.Build(m.db),
	})
}

// index is the homepage: published posts, newest first.
func (m *PostsModule) index(c *gin.Context) {
	m.analytics.TrackVisit(c, nil)
	m.listing(c, "Home", m.db.Where("is_published = ? AND is_page = ?", true, false))
}

func (m *PostsModule) drafts(c *gin.Context) {
	m.listing(c, "Drafts", m.db.Where("is_published = ? AND is_page = ?", false, false))
}

// search runs a plain substring match over published entries. The route is
// gone while the admin has search disabled.
func (m *PostsModule) search(c *gin.Context) {
	var setting models.SearchBarSetting
	if err := m.db.First(&setting).Error; err == nil && setting.Placement == "disabled" {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if len(query) < minSearchLen {
		c.HTML(http.StatusBadRequest, "index.html", gin.H{
			"title":  "Search",
			"error":  "Search string must have at least 3 characters.",
			"layout": layout.Build(m.db),
		})
		return
	}

	pattern := "%" + query + "%"
	m.listing(c, "Search", m.db.
		Where("is_published = ?", true).
		Where("title LIKE ? OR content LIKE ?", pattern, pattern))
}

// categoryIndex lists the published posts filed under one category. A 404
// is served when the admin disabled categories altogether.
func (m *PostsModule) categoryIndex(c *gin.Context) {
	var setting models.CategoryDisplaySetting
	if err := m.db.First(&setting).Error; err == nil && setting.Presence == "disabled" {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	slug := c.Param("slug")
	if slug == categories.ReservedName {
		m.listing(c, "Category: "+categories.ReservedName, m.db.
			Where("is_published = ? AND is_page = ?", true, false).
			Where("id NOT IN (SELECT post_id FROM post_category)"))
		return
	}

	category, err := categories.NewStore(m.db).BySlug(slug)
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	m.listing(c, "Category: "+category.Name, m.db.
		Joins("JOIN post_category ON post_category.post_id = posts.id").
		Where("post_category.category_id = ? AND posts.is_published = ?", category.ID, true))
}

// detail shows one post or page in full. Drafts are visible to the owner
// only.
func (m *PostsModule) detail(c *gin.Context) {
	post, err := BySlug(m.db, c.Param("slug"))
	if err != nil || (!post.IsPublished && !auth.LoggedIn(c)) {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	postID := int(post.ID)
	m.analytics.TrackVisit(c, &postID)

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"title":       post.Title,
		"post":        post,
		"contentHTML": renderMarkdown(post.Content),
		"layout":      layout.Build(m.db),
	})
}

func (m *PostsModule) createPage(c *gin.Context) {
	isPage := strings.HasSuffix(c.FullPath(), "/create_page")
	title := "New Post"
	if isPage {
		title = "New Page"
	}

	c.HTML(http.StatusOK, "create.html", gin.H{
		"title":  title,
		"isPage": isPage,
	})
}

func (m *PostsModule) createPost(c *gin.Context) {
	isPage := strings.HasSuffix(c.FullPath(), "/create_page")

	post := &models.Post{
		Title:       c.PostForm("title"),
		Content:     c.PostForm("content"),
		IsPage:      isPage,
		IsPublished: c.PostForm("publish") == "1",
	}

	if post.Title == "" {
		c.HTML(http.StatusBadRequest, "create.html", gin.H{
			"title":  "New Post",
			"isPage": isPage,
			"post":   post,
			"error":  "Title is required.",
		})
		return
	}

	if err := m.save(c, post, "create.html"); err != nil {
		return
	}

	cache.Clear(post.Slug)
	if post.IsPublished {
		c.Redirect(http.StatusFound, "/")
	} else {
		c.Redirect(http.StatusFound, "/drafts")
	}
}

func (m *PostsModule) editPage(c *gin.Context) {
	post, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	names := make([]string, len(post.Categories))
	for i, cat := range post.Categories {
		names[i] = cat.Name
	}

	c.HTML(http.StatusOK, "create.html", gin.H{
		"title":      "Edit Post",
		"post":       post,
		"isPage":     post.IsPage,
		"categories": strings.Join(names, ", "),
		"visitCount": m.analytics.PostVisitCount(int(post.ID)),
	})
}

func (m *PostsModule) editPost(c *gin.Context) {
	post, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.HTML(http.StatusBadRequest, "create.html", gin.H{
			"title":  "Edit Post",
			"post":   post,
			"isPage": post.IsPage,
			"error":  "Title is required.",
		})
		return
	}

	oldSlug := post.Slug
	post.Title = title
	post.Content = c.PostForm("content")
	post.IsPublished = c.PostForm("publish") == "1"

	if err := m.save(c, post, "create.html"); err != nil {
		return
	}

	cache.Clear(oldSlug)
	cache.Clear(post.Slug)
	if post.IsPublished {
		c.Redirect(http.StatusFound, "/")
	} else {
		c.Redirect(http.StatusFound, "/drafts")
	}
}

// save runs the transactional write and renders the form again on failure.
// Returns a non-nil error when a response was already written.
func (m *PostsModule) save(c *gin.Context, post *models.Post, tmpl string) error {
	names := splitCategories(c.PostForm("categories"))

	if err := Save(m.db, post, names); err != nil {
		status := http.StatusInternalServerError
		msg := "Could not save."
		if err == ErrTitleTaken {
			status = http.StatusConflict
			msg = "Error: This title is already in use."
		}
		c.HTML(status, tmpl, gin.H{
			"title":  "Edit Post",
			"post":   post,
			"isPage": post.IsPage,
			"error":  msg,
		})
		return err
	}
	return nil
}

func (m *PostsModule) deletePage(c *gin.Context) {
	post, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	c.HTML(http.StatusOK, "delete.html", gin.H{
		"title": "Delete Post",
		"post":  post,
	})
}

func (m *PostsModule) deletePost(c *gin.Context) {
	post, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	if err := Delete(m.db, post); err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	cache.Clear(post.Slug)
	c.Redirect(http.StatusFound, "/")
}

func (m *PostsModule) sitemap(c *gin.Context) {
	domain := strings.TrimSuffix(siteDomain(), "/")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	sitemap.WriteString("  <url>\n")
	sitemap.WriteString("    <loc>" + domain + "/</loc>\n")
	sitemap.WriteString("    <changefreq>weekly</changefreq>\n")
	sitemap.WriteString("    <priority>1.0</priority>\n")
	sitemap.WriteString("  </url>\n")

	var published []models.Post
	m.db.Where("is_published = ?", true).Find(&published)

	for _, post := range published {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + domain + "/" + post.Slug + "</loc>\n")
		sitemap.WriteString("    <lastmod>" + post.UpdatedAt.Format(time.RFC3339) + "</lastmod>\n")
		sitemap.WriteString("    <changefreq>monthly</changefreq>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}

func siteDomain() string {
	domain := os.Getenv("SITE_DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}
	return domain
}

func splitCategories(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		names = append(names, strings.TrimSpace(name))
	}
	return names
}
