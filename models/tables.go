package models

import "time"

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
}

// Post holds both blog posts and standalone pages; IsPage tells them apart.
type Post struct {
	ID          uint       `gorm:"primary_key"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"unique;not null;index" json:"slug"`
	Content     string     `gorm:"type:text" json:"content"`
	IsPage      bool       `gorm:"index" json:"is_page"`
	IsPublished bool       `gorm:"index" json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Categories  []Category `gorm:"many2many:post_category" json:"categories"`
}

type Category struct {
	ID   uint   `gorm:"primary_key"`
	Name string `gorm:"not null;index" json:"name"`
	Slug string `gorm:"not null" json:"slug"`
}

// PostCategory is the association table behind Post.Categories. Declared
// explicitly so migrations and the orphan sweep can address it by name.
type PostCategory struct {
	PostID     uint `gorm:"primaryKey" json:"post_id"`
	CategoryID uint `gorm:"primaryKey" json:"category_id"`
}

func (PostCategory) TableName() string {
	return "post_category"
}

type ContentWidget struct {
	ID          uint      `gorm:"primary_key"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"unique;not null;index" json:"slug"`
	Content     string    `gorm:"type:text" json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WidgetOrder is one sidebar slot. Identity is (Kind, ContentID), not the
// display name; Name exists only for rendering. Positions are kept dense,
// 1..N, by the sidebar ledger.
type WidgetOrder struct {
	ID        uint   `gorm:"primary_key"`
	Kind      string `gorm:"not null;index" json:"kind"` // search_bar, category_list, content
	ContentID uint   `gorm:"index" json:"content_id"`    // content widget id, 0 for built-ins
	Name      string `gorm:"not null" json:"name"`
	Position  int    `gorm:"not null" json:"position"`
}

// SearchBarSetting is a singleton row: exactly one exists after first access.
type SearchBarSetting struct {
	ID        uint   `gorm:"primary_key"`
	Placement string `gorm:"not null" json:"placement"` // navbar, sidebar, disabled
}

// CategoryDisplaySetting is a singleton row, same lifecycle as SearchBarSetting.
type CategoryDisplaySetting struct {
	ID       uint   `gorm:"primary_key"`
	Presence string `gorm:"not null" json:"presence"` // sidebar_and_posts, posts_only, disabled
}

type Social struct {
	ID      uint   `gorm:"primary_key"`
	Name    string `gorm:"not null" json:"name"`
	Address string `json:"address"`
}
