package controls

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkpress/analytics"
	"inkpress/auth"
	"inkpress/cache"
	"inkpress/models"
	"inkpress/sidebar"
)

type ControlsModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
}

func NewControlsModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule) *ControlsModule {
	return &ControlsModule{db: db, analytics: analyticsModule}
}

func (m *ControlsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/controls")
	group.Use(auth.RequireAuth)
	{
		group.GET("/search_bar", m.searchBarPage)
		group.POST("/search_bar", m.searchBarPost)
		group.GET("/categories", m.categoriesPage)
		group.POST("/categories", m.categoriesPost)
		group.GET("/socials", m.socialsPage)
		group.POST("/socials", m.socialsPost)
		group.GET("/widgets_order", m.widgetsOrderPage)
		group.POST("/widgets_order", m.widgetsOrderPost)
		group.GET("/stats", m.statsPage)
	}
}

// statsPage shows the visitor numbers: visits per day and the most read
// posts of the last 30 days.
func (m *ControlsModule) statsPage(c *gin.Context) {
	if m.analytics == nil {
		c.HTML(http.StatusOK, "controls_stats.html", gin.H{
			"title":            "Visitor Statistics",
			"analyticsEnabled": false,
		})
		return
	}

	visitsByDay := m.analytics.VisitsByDay(30)
	topPosts := m.analytics.TopPosts(30, 10)

	// Post titles live in the content database, not the analytics one.
	for i := range topPosts {
		var post models.Post
		if err := m.db.First(&post, topPosts[i].PostID).Error; err == nil {
			topPosts[i].PostTitle = post.Title
		} else {
			topPosts[i].PostTitle = "(deleted post)"
		}
	}

	maxVisitsPerDay := int64(1)
	for _, day := range visitsByDay {
		if day.Count > maxVisitsPerDay {
			maxVisitsPerDay = day.Count
		}
	}

	c.HTML(http.StatusOK, "controls_stats.html", gin.H{
		"title":            "Visitor Statistics",
		"analyticsEnabled": true,
		"visitsByDay":      visitsByDay,
		"topPosts":         topPosts,
		"maxVisitsPerDay":  maxVisitsPerDay,
	})
}

func (m *ControlsModule) searchBarPage(c *gin.Context) {
	var setting models.SearchBarSetting
	if err := m.db.First(&setting).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "controls_search_bar.html", gin.H{
		"title":     "Search Bar Configuration",
		"placement": setting.Placement,
	})
}

func (m *ControlsModule) searchBarPost(c *gin.Context) {
	placement := c.PostForm("placement")

	if err := SetSearchBarPlacement(m.db, placement); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidChoice) {
			status = http.StatusBadRequest
		}
		c.HTML(status, "controls_search_bar.html", gin.H{
			"title":     "Search Bar Configuration",
			"placement": placement,
			"error":     "Could not save the configuration.",
		})
		return
	}

	c.HTML(http.StatusOK, "controls_search_bar.html", gin.H{
		"title":     "Search Bar Configuration",
		"placement": placement,
		"success":   "Configuration parameters successfully saved.",
	})
}

func (m *ControlsModule) categoriesPage(c *gin.Context) {
	var setting models.CategoryDisplaySetting
	if err := m.db.First(&setting).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "controls_categories.html", gin.H{
		"title":    "Categories Feature Configuration",
		"presence": setting.Presence,
	})
}

func (m *ControlsModule) categoriesPost(c *gin.Context) {
	presence := c.PostForm("presence")

	if err := SetCategoryDisplay(m.db, presence); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidChoice) {
			status = http.StatusBadRequest
		}
		c.HTML(status, "controls_categories.html", gin.H{
			"title":    "Categories Feature Configuration",
			"presence": presence,
			"error":    "Could not save the configuration.",
		})
		return
	}

	c.HTML(http.StatusOK, "controls_categories.html", gin.H{
		"title":    "Categories Feature Configuration",
		"presence": presence,
		"success":  "Configuration parameters successfully saved.",
	})
}

func (m *ControlsModule) socialsPage(c *gin.Context) {
	var socials []models.Social
	if err := m.db.Order("id").Find(&socials).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "controls_socials.html", gin.H{
		"title":   "Configure Socials",
		"socials": socials,
	})
}

func (m *ControlsModule) socialsPost(c *gin.Context) {
	var socials []models.Social
	if err := m.db.Order("id").Find(&socials).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		for i := range socials {
			socials[i].Address = c.PostForm(socialField(socials[i].ID))
			if err := tx.Save(&socials[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.HTML(http.StatusInternalServerError, "controls_socials.html", gin.H{
			"title":   "Configure Socials",
			"socials": socials,
			"error":   "Could not save your social addresses.",
		})
		return
	}

	cache.ClearAll()

	c.HTML(http.StatusOK, "controls_socials.html", gin.H{
		"title":   "Configure Socials",
		"socials": socials,
		"success": "Your social addresses were successfully saved.",
	})
}

func (m *ControlsModule) widgetsOrderPage(c *gin.Context) {
	ledger := sidebar.NewLedger(m.db)
	form, err := sidebar.NewReorderForm(ledger)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	c.HTML(http.StatusOK, "controls_widgets_order.html", gin.H{
		"title": "Configure Sidebar Widgets Order",
		"form":  form,
	})
}

// widgetsOrderPost applies a bulk re-order. The submitted positions must be
// a clean permutation of 1..N; a rejected form leaves the sidebar untouched.
func (m *ControlsModule) widgetsOrderPost(c *gin.Context) {
	ledger := sidebar.NewLedger(m.db)
	form, err := sidebar.NewReorderForm(ledger)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{"title": "Error 500"})
		return
	}

	for i := range form.Choices {
		raw := c.PostForm(positionField(form.Choices[i].Ref))
		pos, err := strconv.Atoi(raw)
		if err != nil {
			c.HTML(http.StatusBadRequest, "controls_widgets_order.html", gin.H{
				"title": "Configure Sidebar Widgets Order",
				"form":  form,
				"error": "Positions must be numbers.",
			})
			return
		}
		form.Choices[i].Position = pos
	}

	if err := form.Apply(ledger); err != nil {
		status := http.StatusInternalServerError
		msg := "Could not save your choices."
		if errors.Is(err, sidebar.ErrChoicesNotDistinct) || errors.Is(err, sidebar.ErrInvalidPositions) {
			status = http.StatusBadRequest
			msg = "Choices must be distinct."
		}
		c.HTML(status, "controls_widgets_order.html", gin.H{
			"title": "Configure Sidebar Widgets Order",
			"form":  form,
			"error": msg,
		})
		return
	}

	cache.ClearAll()

	c.HTML(http.StatusOK, "controls_widgets_order.html", gin.H{
		"title":   "Configure Sidebar Widgets Order",
		"form":    form,
		"success": "Your choices were successfully saved.",
	})
}

func socialField(id uint) string {
	return fmt.Sprintf("address_%d", id)
}

func positionField(ref sidebar.WidgetRef) string {
	return fmt.Sprintf("position_%s_%d", ref.Kind, ref.ContentID)
}
