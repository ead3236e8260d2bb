package sidebar

import "errors"

// ErrChoicesNotDistinct mirrors the message shown next to the offending form
// fields when two widgets were given the same position.
var ErrChoicesNotDistinct = errors.New("choices must be distinct")

// ReorderChoice is one row of the widget-order form: the widget and the
// position the operator picked for it.
type ReorderChoice struct {
	Ref      WidgetRef
	Name     string
	Position int
}

// ReorderForm is the bulk position edit, validated as a whole before any of
// it is applied.
type ReorderForm struct {
	Choices []ReorderChoice
}

// NewReorderForm builds a form over the currently tracked widgets, one choice
// per slot, preloaded with each widget's current position.
func NewReorderForm(ledger *Ledger) (*ReorderForm, error) {
	entries, err := ledger.Ordered()
	if err != nil {
		return nil, err
	}

	form := &ReorderForm{Choices: make([]ReorderChoice, len(entries))}
	for i, entry := range entries {
		form.Choices[i] = ReorderChoice{
			Ref:      WidgetRef{Kind: entry.Kind, ContentID: entry.ContentID},
			Name:     entry.Name,
			Position: entry.Position,
		}
	}
	return form, nil
}

// Validate checks the cross-field rule: the chosen positions must be exactly
// 1..N with no repeats. The whole edit stands or falls together.
func (f *ReorderForm) Validate() error {
	seen := make(map[int]bool, len(f.Choices))
	for _, choice := range f.Choices {
		if seen[choice.Position] {
			return ErrChoicesNotDistinct
		}
		seen[choice.Position] = true
	}
	for want := 1; want <= len(f.Choices); want++ {
		if !seen[want] {
			return ErrChoicesNotDistinct
		}
	}
	return nil
}

// Apply validates and hands the mapping to the ledger.
func (f *ReorderForm) Apply(ledger *Ledger) error {
	if err := f.Validate(); err != nil {
		return err
	}

	positions := make(map[WidgetRef]int, len(f.Choices))
	for _, choice := range f.Choices {
		positions[choice.Ref] = choice.Position
	}
	return ledger.Reassign(positions)
}
