package form

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// SectionSpec is one gated group of fields. Sections are defined once and never mutated.
type SectionSpec struct {
	ID                 string   `json:"id" yaml:"id"`
	DisplayName        string   `json:"display_name" yaml:"display_name"`
	RequiredFields     []string `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
	RequiredRadios     []string `json:"required_radios,omitempty" yaml:"required_radios,omitempty"`
	RequiredCheckboxes []string `json:"required_checkboxes,omitempty" yaml:"required_checkboxes,omitempty"`
	RequiresSignature  bool     `json:"requires_signature,omitempty" yaml:"requires_signature,omitempty"`
	Optional           bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Schema is the ordered chain of sections for a form.
type Schema struct {
	Version  string        `json:"version" yaml:"version"`
	Sections []SectionSpec `json:"sections" yaml:"sections"`
}

// ErrInvalidSchema is wrapped by every Schema.Validate failure.
var ErrInvalidSchema = errors.New("invalid form schema")

// Keys every submitted record carries next to the field values. No field may use them.
const (
	ReservedSignature   = "signature"
	ReservedSubmittedAt = "submittedAt"
)

// Validate checks the structural rules of a schema: unique section ids, no field using a
// reserved key, and exactly one signature-bearing sign-off section, which must be the last one
// and not optional.
func (s *Schema) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidSchema)
	}

	seen := make(map[string]bool, len(s.Sections))
	signOff := -1
	for i, sec := range s.Sections {
		if sec.ID == "" {
			return fmt.Errorf("%w: section %d has no id", ErrInvalidSchema, i)
		}
		if seen[sec.ID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidSchema, sec.ID)
		}
		seen[sec.ID] = true

		for _, ids := range [][]string{sec.RequiredFields, sec.RequiredRadios, sec.RequiredCheckboxes} {
			for _, id := range ids {
				if id == ReservedSignature || id == ReservedSubmittedAt {
					return fmt.Errorf("%w: section %q uses reserved field id %q", ErrInvalidSchema, sec.ID, id)
				}
			}
		}

		if sec.RequiresSignature {
			if signOff >= 0 {
				return fmt.Errorf("%w: sections %q and %q both require a signature",
					ErrInvalidSchema, s.Sections[signOff].ID, sec.ID)
			}
			signOff = i
		}
	}

	if signOff < 0 {
		return fmt.Errorf("%w: no section requires a signature", ErrInvalidSchema)
	}
	last := s.Sections[len(s.Sections)-1]
	if signOff != len(s.Sections)-1 {
		return fmt.Errorf("%w: signature section %q must be the last section", ErrInvalidSchema, s.Sections[signOff].ID)
	}
	if last.Optional {
		return fmt.Errorf("%w: signature section %q cannot be optional", ErrInvalidSchema, last.ID)
	}
	return nil
}

// SignOff returns the index of the signature section, or -1.
func (s *Schema) SignOff() int {
	for i, sec := range s.Sections {
		if sec.RequiresSignature {
			return i
		}
	}
	return -1
}

// Index returns the position of the section with the given id, or -1.
func (s *Schema) Index(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// Value is the raw state of one input. Text holds text input and the chosen option of a radio
// group; Checked holds checkbox state.
type Value struct {
	Text    string `json:"text,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// FieldValues maps field ids, radio group names and checkbox ids to their current value.
type FieldValues map[string]Value

// NewFieldValues returns the initial values of a fresh form: the sign-off date defaults to today.
func NewFieldValues(now time.Time) FieldValues {
	return FieldValues{
		FieldSignedByDate: {Text: now.Format(time.DateOnly)},
	}
}

// Text returns the text of a field, or "" when absent.
func (f FieldValues) Text(id string) string {
	return f[id].Text
}

// Checked reports whether a checkbox is checked.
func (f FieldValues) Checked(id string) bool {
	return f[id].Checked
}

// Choice returns the selected option of a radio group and whether one is selected.
func (f FieldValues) Choice(group string) (string, bool) {
	v, ok := f[group]
	if !ok || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

// Clone returns an independent copy.
func (f FieldValues) Clone() FieldValues {
	if f == nil {
		return FieldValues{}
	}
	return maps.Clone(f)
}

// WithText returns a copy with a text field (or radio choice) set.
func (f FieldValues) WithText(id, text string) FieldValues {
	out := f.Clone()
	v := out[id]
	v.Text = text
	out[id] = v
	return out
}

// WithChecked returns a copy with a checkbox set.
func (f FieldValues) WithChecked(id string, checked bool) FieldValues {
	out := f.Clone()
	v := out[id]
	v.Checked = checked
	out[id] = v
	return out
}
