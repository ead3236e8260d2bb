// Package layout assembles the data every public page template needs:
// which widgets sit in the sidebar and in what order, the category post
// counts, and where the search bar goes. Read-only; nothing here mutates.
package layout

import (
	"bytes"
	"html/template"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"inkpress/categories"
	"inkpress/models"
	"inkpress/sidebar"
)

// markdown renderer for content widget bodies, configured like the post
// renderer.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

// Widget is one rendered sidebar slot.
type Widget struct {
	Kind     string
	Name     string
	HTML     template.HTML                       // content widget body, empty for built-ins
	Counts   map[string]categories.CategoryCount // set for the category widget only
	Position int
}

// Layout is handed to templates as a single value.
type Layout struct {
	SearchBarPlacement string
	CategoryPresence   string
	Widgets            []Widget
	Socials            []models.Social
}

// Build queries the sidebar ledger, settings and category counts for one
// page render. Errors are logged and leave the corresponding section empty
// rather than failing the page.
func Build(db *gorm.DB) Layout {
	var out Layout

	var sb models.SearchBarSetting
	if err := db.First(&sb).Error; err == nil {
		out.SearchBarPlacement = sb.Placement
	}
	var cd models.CategoryDisplaySetting
	if err := db.First(&cd).Error; err == nil {
		out.CategoryPresence = cd.Presence
	}

	db.Order("id").Find(&out.Socials)

	entries, err := sidebar.NewLedger(db).Ordered()
	if err != nil {
		log.Printf("layout: loading sidebar order: %v", err)
		return out
	}

	store := categories.NewStore(db)
	for _, entry := range entries {
		w := Widget{Kind: entry.Kind, Name: entry.Name, Position: entry.Position}

		switch entry.Kind {
		case sidebar.KindCategoryList:
			counts, err := store.PostCountByCategory()
			if err != nil {
				log.Printf("layout: counting posts per category: %v", err)
			} else {
				w.Counts = counts
			}
		case sidebar.KindContent:
			var cw models.ContentWidget
			if err := db.First(&cw, entry.ContentID).Error; err == nil {
				w.HTML = renderMarkdown(cw.Content)
			}
		}

		out.Widgets = append(out.Widgets, w)
	}

	return out
}

func renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(buf.String())
}
