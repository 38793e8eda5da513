// Package formmap declares the static mapping from record attributes to
// controls on the target form, and resolves a record against it into an
// ordered fill plan.
package formmap

import (
	"errors"
	"fmt"

	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/schema"
)

// Kind is how a mapped control is interacted with.
type Kind string

const (
	KindText     Kind = "text"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
)

// Group orders entries within the map: representative fields first, then
// eligibility, then subject-person fields.
type Group int

const (
	GroupRepresentative Group = iota
	GroupEligibility
	GroupSubject
)

// Transform converts a record value into the exact string the page expects.
// Returning "" marks the value unusable (treated like an absent value for
// optional entries).
type Transform func(string) string

// Option is one alternative of a radio-style entry.
type Option struct {
	Value   string
	Locator driver.Locator
}

// Entry maps one logical field to one on-page control. Exactly one of Text
// or Flag sources the value: Flag for checkbox entries, Text for the rest.
type Entry struct {
	FieldID   string
	Kind      Kind
	Locator   driver.Locator
	Options   []Option // radio entries only
	Required  bool
	Group     Group
	Text      func(r *schema.Record) string
	Flag      func(r *schema.Record) bool
	Transform Transform
}

var errDuplicateField = errors.New("duplicate field id")

// Validate checks the structural invariants of a map: unique field ids and
// a usable locator (or option set) per entry.
func Validate(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.FieldID == "" {
			return errors.New("entry with empty field id")
		}
		if _, dup := seen[e.FieldID]; dup {
			return fmt.Errorf("%w: %s", errDuplicateField, e.FieldID)
		}
		seen[e.FieldID] = struct{}{}

		switch e.Kind {
		case KindRadio:
			if len(e.Options) == 0 {
				return fmt.Errorf("radio entry %s has no options", e.FieldID)
			}
			for _, opt := range e.Options {
				if opt.Locator.Selector == "" {
					return fmt.Errorf("radio entry %s option %q has no selector", e.FieldID, opt.Value)
				}
			}
			if e.Text == nil {
				return fmt.Errorf("radio entry %s has no value source", e.FieldID)
			}
		case KindCheckbox:
			if e.Locator.Selector == "" {
				return fmt.Errorf("entry %s has no selector", e.FieldID)
			}
			if e.Flag == nil {
				return fmt.Errorf("checkbox entry %s has no value source", e.FieldID)
			}
		case KindText, KindSelect:
			if e.Locator.Selector == "" {
				return fmt.Errorf("entry %s has no selector", e.FieldID)
			}
			if e.Text == nil {
				return fmt.Errorf("entry %s has no value source", e.FieldID)
			}
		default:
			return fmt.Errorf("entry %s has unknown kind %q", e.FieldID, e.Kind)
		}
	}
	return nil
}
