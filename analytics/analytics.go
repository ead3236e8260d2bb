// Package analytics records anonymous visit events in a side database.
// The module is optional: when no analytics database is configured every
// call is a no-op.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VisitEvent is one page view.
type VisitEvent struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	PostID    *int      `gorm:"index"` // nil for the homepage
	CookieID  string    `gorm:"not null;index"`
	Event     string    `gorm:"not null;default:'visit'"`
	IP        string    `gorm:"not null"`
	Language  *string
	Browser   *string
	CreatedAt time.Time `gorm:"index"`
}

type AnalyticsModule struct {
	db *gorm.DB
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Println("Analytics DB is not configured, analytics disabled")
		return nil
	}

	if err := db.AutoMigrate(&VisitEvent{}); err != nil {
		log.Printf("Error migrating visit_events table: %v", err)
		return nil
	}

	return &AnalyticsModule{db: db}
}

// TrackVisit records a page view. Repeat views from the same visitor
// within 30 minutes of each other count once.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID *int) {
	if a == nil || a.db == nil {
		return
	}

	cookieID := a.getOrCreateCookieID(c)

	thirtyMinutesAgo := time.Now().Add(-30 * time.Minute)

	var recentVisit VisitEvent
	query := a.db.Where("cookie_id = ? AND created_at > ?", cookieID, thirtyMinutesAgo)
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	} else {
		query = query.Where("post_id IS NULL")
	}

	if err := query.First(&recentVisit).Error; err == nil {
		return
	}

	event := VisitEvent{
		PostID:    postID,
		CookieID:  cookieID,
		Event:     "visit",
		IP:        a.getClientIP(c),
		Language:  a.extractLanguage(c),
		Browser:   a.extractBrowser(c.Request.UserAgent()),
		CreatedAt: time.Now(),
	}

	// Saved off the request path so a slow analytics db never delays the page.
	go func() {
		if err := a.db.Create(&event).Error; err != nil {
			log.Printf("Error saving analytics event: %v", err)
		}
	}()
}

func (a *AnalyticsModule) getOrCreateCookieID(c *gin.Context) string {
	cookieName := "inkpress_visitor_id"

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	data := time.Now().String() + c.ClientIP() + c.Request.UserAgent()
	hash := sha256.Sum256([]byte(data))
	cookieID := hex.EncodeToString(hash[:])

	// Two year cookie, httpOnly.
	c.SetCookie(cookieName, cookieID, 60*60*24*365*2, "/", "", false, true)

	return cookieID
}

func (a *AnalyticsModule) getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}

	return c.ClientIP()
}

func (a *AnalyticsModule) extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// Order matters, the more specific agents first.
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		browser = "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	default:
		browser = "Other"
	}

	return &browser
}

func (a *AnalyticsModule) extractLanguage(c *gin.Context) *string {
	acceptLang := c.GetHeader("Accept-Language")
	if acceptLang == "" {
		return nil
	}

	// "en-US,en;q=0.9,pt-BR;q=0.8" -> "en-US"
	parts := strings.Split(acceptLang, ",")
	if len(parts) > 0 {
		lang := strings.TrimSpace(parts[0])
		lang = strings.Split(lang, ";")[0]
		return &lang
	}

	return nil
}

// DayVisits is the visit count for one calendar day.
type DayVisits struct {
	Date  string
	Count int64
}

// PostVisits is the visit count for one post. PostTitle is filled by the
// caller, which owns the content database.
type PostVisits struct {
	PostID    int
	PostTitle string
	Count     int64
}

// PostVisitCount returns the total number of visits for a post.
func (a *AnalyticsModule) PostVisitCount(postID int) int64 {
	if a == nil || a.db == nil {
		return 0
	}

	var count int64
	a.db.Model(&VisitEvent{}).Where("post_id = ?", postID).Count(&count)
	return count
}

// VisitsByDay returns the visit counts of the last N days, zero-filled.
func (a *AnalyticsModule) VisitsByDay(days int) []DayVisits {
	if a == nil || a.db == nil {
		return []DayVisits{}
	}

	startDate := time.Now().AddDate(0, 0, -days)

	var results []struct {
		Date  string
		Count int64
	}

	a.db.Model(&VisitEvent{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", startDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results)

	dayVisits := make([]DayVisits, days)
	for i := 0; i < days; i++ {
		date := time.Now().AddDate(0, 0, -(days - 1 - i))
		dayVisits[i] = DayVisits{Date: date.Format("2006-01-02")}
	}

	for _, result := range results {
		for i := range dayVisits {
			if dayVisits[i].Date == result.Date {
				dayVisits[i].Count = result.Count
				break
			}
		}
	}

	return dayVisits
}

// TopPosts returns the most visited posts of the last N days.
func (a *AnalyticsModule) TopPosts(days, limit int) []PostVisits {
	if a == nil || a.db == nil {
		return []PostVisits{}
	}

	startDate := time.Now().AddDate(0, 0, -days)

	var results []PostVisits
	a.db.Model(&VisitEvent{}).
		Select("post_id as post_id, COUNT(*) as count").
		Where("post_id IS NOT NULL AND created_at >= ?", startDate).
		Group("post_id").
		Order("count DESC").
		Limit(limit).
		Scan(&results)

	return results
}
