package formmap

import (
	"regexp"
	"strings"

	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/schema"
)

// Step is one resolved, ready-to-execute unit of the fill plan. Immutable
// once resolved; consumed exactly once by the engine.
type Step struct {
	FieldID  string
	Kind     Kind
	Locator  driver.Locator
	Value    string   // text/select/radio value after transform
	Checked  bool     // checkbox target state
	Options  []Option // radio: every option; Value names the chosen one
	Required bool
}

// Resolve materializes the ordered fill plan for a record.
//
// Optional entries whose source value is empty (or rejected by the entry's
// transform) are omitted entirely: no step, no progress event, excluded
// from the report's total. Required entries are always kept, even with an
// empty value, so a missing required field is accounted for in the report
// instead of silently vanishing. Identical inputs always yield an
// identical plan.
func Resolve(r *schema.Record, entries []Entry) []Step {
	plan := make([]Step, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case KindCheckbox:
			plan = append(plan, Step{
				FieldID:  e.FieldID,
				Kind:     e.Kind,
				Locator:  e.Locator,
				Checked:  e.Flag(r),
				Required: e.Required,
			})
		default:
			v := e.Text(r)
			if v != "" && e.Transform != nil {
				v = e.Transform(v)
			}
			if v == "" && !e.Required {
				continue
			}
			plan = append(plan, Step{
				FieldID:  e.FieldID,
				Kind:     e.Kind,
				Locator:  e.Locator,
				Value:    v,
				Options:  e.Options,
				Required: e.Required,
			})
		}
	}
	return plan
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateTransform passes through ISO dates and rejects anything else. The
// target form's date inputs only accept YYYY-MM-DD, and extraction
// sometimes yields placeholders like "N/A".
func DateTransform(v string) string {
	if datePattern.MatchString(v) {
		return v
	}
	return ""
}

// SexTransform normalizes the sex code to the upper-case single letter the
// page's select options use, rejecting anything else.
func SexTransform(v string) string {
	switch u := strings.ToUpper(v); u {
	case "M", "F", "X":
		return u
	}
	return ""
}
