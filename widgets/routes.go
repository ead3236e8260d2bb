package widgets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkpress/auth"
	"inkpress/models"
)

type WidgetsModule struct {
	db *gorm.DB
}

func NewWidgetsModule(db *gorm.DB) *WidgetsModule {
	return &WidgetsModule{db: db}
}

func (m *WidgetsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/content_widgets")
	group.Use(auth.RequireAuth)
	{
		group.GET("/", m.index)
		group.GET("/create", m.createPage)
		group.POST("/create", m.createPost)
		group.GET("/:slug/edit", m.editPage)
		group.POST("/:slug/edit", m.editPost)
		group.GET("/:slug/delete", m.deletePage)
		group.POST("/:slug/delete", m.deletePost)
	}
}

func (m *WidgetsModule) index(c *gin.Context) {
	var published, drafts []models.ContentWidget
	if err := m.db.Where("is_published = ?", true).Order("title").Find(&published).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}
	if err := m.db.Where("is_published = ?", false).Order("title").Find(&drafts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "widgets_index.html", gin.H{
		"title":     "Content Widgets",
		"published": published,
		"drafts":    drafts,
	})
}

func (m *WidgetsModule) createPage(c *gin.Context) {
	c.HTML(http.StatusOK, "widgets_create.html", gin.H{"title": "New Content Widget"})
}

func (m *WidgetsModule) createPost(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")
	publish := c.PostForm("publish") == "1"

	if title == "" {
		c.HTML(http.StatusBadRequest, "widgets_create.html", gin.H{
			"title":   "New Content Widget",
			"error":   "Title is required.",
			"content": content,
		})
		return
	}

	if _, err := Create(m.db, title, content, publish); err != nil {
		status := http.StatusInternalServerError
		msg := "Could not save the widget."
		if errors.Is(err, ErrTitleTaken) {
			status = http.StatusConflict
			msg = "Error: This title is already in use."
		}
		c.HTML(status, "widgets_create.html", gin.H{
			"title":       "New Content Widget",
			"error":       msg,
			"widgetTitle": title,
			"content":     content,
		})
		return
	}

	c.Redirect(http.StatusFound, "/content_widgets/")
}

func (m *WidgetsModule) editPage(c *gin.Context) {
	widget, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	c.HTML(http.StatusOK, "widgets_create.html", gin.H{
		"title":  "Edit Content Widget",
		"widget": widget,
	})
}

func (m *WidgetsModule) editPost(c *gin.Context) {
	widget, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	title := c.PostForm("title")
	content := c.PostForm("content")
	publish := c.PostForm("publish") == "1"

	if err := Update(m.db, widget, title, content, publish); err != nil {
		status := http.StatusInternalServerError
		msg := "Could not save the widget."
		if errors.Is(err, ErrTitleTaken) {
			status = http.StatusConflict
			msg = "Error: This title is already in use."
		}
		c.HTML(status, "widgets_create.html", gin.H{
			"title":  "Edit Content Widget",
			"widget": widget,
			"error":  msg,
		})
		return
	}

	c.Redirect(http.StatusFound, "/content_widgets/")
}

func (m *WidgetsModule) deletePage(c *gin.Context) {
	widget, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	c.HTML(http.StatusOK, "widgets_delete.html", gin.H{
		"title":  "Delete Content Widget",
		"widget": widget,
	})
}

func (m *WidgetsModule) deletePost(c *gin.Context) {
	widget, err := BySlug(m.db, c.Param("slug"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"title": "Error 404"})
		return
	}

	if err := Delete(m.db, widget); err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.Redirect(http.StatusFound, "/content_widgets/")
}
