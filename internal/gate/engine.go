// Package gate derives the lock, completion and progress state of a sectioned form from the
// current field values. Every function here is pure: state is rebuilt from scratch on each call,
// never patched.
package gate

import (
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/validator"
)

// SectionState is the derived status of one section.
type SectionState struct {
	Locked    bool                 `json:"locked"`
	Satisfied bool                 `json:"satisfied"`
	Banner    validator.Banner     `json:"banner"`
	Fields    []validator.FieldTag `json:"fields,omitempty"`
}

// Unlocked is the inverse of Locked.
func (s SectionState) Unlocked() bool { return !s.Locked }

// Complete means unlocked and satisfied.
func (s SectionState) Complete() bool { return !s.Locked && s.Satisfied }

// State is the gate state of the whole form. Active is the section the user should work on
// next, or -1 for a schema with no sections.
type State struct {
	Sections []SectionState `json:"sections"`
	Active   int            `json:"active"`
}

// Recompute evaluates every section in order. Section 0 is always unlocked; each later section
// is unlocked only while its predecessor is satisfied. Locked sections are never satisfied, so a
// lock propagates through optional sections as well.
func Recompute(schema *form.Schema, fields form.FieldValues, sig form.Signature) State {
	st := State{Sections: make([]SectionState, len(schema.Sections)), Active: -1}

	for i, sec := range schema.Sections {
		locked := i > 0 && !st.Sections[i-1].Satisfied
		res := validator.ValidateSection(sec, fields, sig, locked)
		st.Sections[i] = SectionState{
			Locked:    locked,
			Satisfied: res.Satisfied,
			Banner:    res.Banner,
			Fields:    res.Fields,
		}
	}

	st.Active = activeSection(schema, st.Sections)
	return st
}

// activeSection is the first unsatisfied required section that is not locked. When every
// required section is satisfied it is the last section, the sign-off step.
func activeSection(schema *form.Schema, sections []SectionState) int {
	for i, s := range sections {
		if !s.Satisfied && !schema.Sections[i].Optional && !s.Locked {
			return i
		}
	}
	return len(sections) - 1
}

// JustUnlocked lists the sections that were locked in prev and are unlocked in next.
func JustUnlocked(prev, next State) []int {
	var out []int
	for i, s := range next.Sections {
		if i < len(prev.Sections) && prev.Sections[i].Locked && !s.Locked {
			out = append(out, i)
		}
	}
	return out
}

// RequiredSatisfied reports whether every non-optional section is satisfied.
func RequiredSatisfied(schema *form.Schema, st State) bool {
	for i, sec := range schema.Sections {
		if !sec.Optional && !st.Sections[i].Satisfied {
			return false
		}
	}
	return true
}
