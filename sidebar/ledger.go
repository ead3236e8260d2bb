// Package sidebar owns the ordered list of widgets placed in the page
// sidebar. Slots are keyed by a stable widget identity, never by display
// name, and positions are kept dense (1..N) after every operation.
package sidebar

import (
	"errors"

	"gorm.io/gorm"

	"inkpress/models"
)

const (
	KindSearchBar    = "search_bar"
	KindCategoryList = "category_list"
	KindContent      = "content"
)

// Display names of the two built-in widgets.
const (
	SearchBarWidgetName = "Search Bar Widget"
	CategoryWidgetName  = "Category Widget"
)

// ErrInvalidPositions is returned by Reassign when the supplied mapping is
// not a bijection from the tracked widgets onto 1..N.
var ErrInvalidPositions = errors.New("sidebar: positions must cover every widget exactly once")

// WidgetRef identifies a widget independently of its display name.
// ContentID is only meaningful for content widgets and stays 0 for the
// built-ins.
type WidgetRef struct {
	Kind      string
	ContentID uint
}

func SearchBarRef() WidgetRef {
	return WidgetRef{Kind: KindSearchBar}
}

func CategoryListRef() WidgetRef {
	return WidgetRef{Kind: KindCategoryList}
}

func ContentRef(id uint) WidgetRef {
	return WidgetRef{Kind: KindContent, ContentID: id}
}

// Ledger reads and mutates the widget_orders table. Mutations that must be
// atomic with other writes can be run on a transaction handle.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) find(ref WidgetRef) (*models.WidgetOrder, error) {
	var entry models.WidgetOrder
	err := l.db.Where("kind = ? AND content_id = ?", ref.Kind, ref.ContentID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Sync moves a widget between Absent and Present. A newly present widget is
// appended after the existing ones; a widget leaving the sidebar triggers a
// compaction so no gap remains. Matching state is a no-op, except that the
// stored display name is refreshed.
func (l *Ledger) Sync(ref WidgetRef, name string, present bool) error {
	entry, err := l.find(ref)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if present {
		if entry != nil {
			if entry.Name != name {
				entry.Name = name
				return l.db.Save(entry).Error
			}
			return nil
		}

		var count int64
		if err := l.db.Model(&models.WidgetOrder{}).Count(&count).Error; err != nil {
			return err
		}
		return l.db.Create(&models.WidgetOrder{
			Kind:      ref.Kind,
			ContentID: ref.ContentID,
			Name:      name,
			Position:  int(count) + 1,
		}).Error
	}

	if entry == nil {
		return nil
	}
	if err := l.db.Delete(entry).Error; err != nil {
		return err
	}
	return l.Compact()
}

// Compact renumbers the remaining entries to 1..N, preserving their relative
// order. Running it twice is the same as running it once.
func (l *Ledger) Compact() error {
	var entries []models.WidgetOrder
	if err := l.db.Order("position").Find(&entries).Error; err != nil {
		return err
	}

	for i := range entries {
		if entries[i].Position == i+1 {
			continue
		}
		entries[i].Position = i + 1
		if err := l.db.Save(&entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Reassign applies a bulk position edit. The mapping must name every tracked
// widget exactly once and the chosen positions must be exactly 1..N;
// anything else is rejected with ErrInvalidPositions and nothing is written.
func (l *Ledger) Reassign(positions map[WidgetRef]int) error {
	var entries []models.WidgetOrder
	if err := l.db.Find(&entries).Error; err != nil {
		return err
	}

	if len(positions) != len(entries) {
		return ErrInvalidPositions
	}
	seen := make(map[int]bool, len(positions))
	for _, entry := range entries {
		pos, ok := positions[WidgetRef{Kind: entry.Kind, ContentID: entry.ContentID}]
		if !ok || pos < 1 || pos > len(entries) || seen[pos] {
			return ErrInvalidPositions
		}
		seen[pos] = true
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			entries[i].Position = positions[WidgetRef{Kind: entries[i].Kind, ContentID: entries[i].ContentID}]
			if err := tx.Save(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Rename updates the display name of a tracked widget in place. The slot and
// its position are untouched; an absent widget is a no-op.
func (l *Ledger) Rename(ref WidgetRef, newName string) error {
	entry, err := l.find(ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	entry.Name = newName
	return l.db.Save(entry).Error
}

// Ordered returns every slot sorted by ascending position.
func (l *Ledger) Ordered() ([]models.WidgetOrder, error) {
	var entries []models.WidgetOrder
	err := l.db.Order("position").Find(&entries).Error
	return entries, err
}

// OrderedNames returns just the display names, in sidebar order.
func (l *Ledger) OrderedNames() ([]string, error) {
	entries, err := l.Ordered()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names, nil
}

func (l *Ledger) Count() (int64, error) {
	var count int64
	err := l.db.Model(&models.WidgetOrder{}).Count(&count).Error
	return count, err
}
