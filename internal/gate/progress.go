package gate

import (
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/validator"
)

// Status is the indicator shown for a section in the progress bar.
type Status string

const (
	StatusLocked   Status = "LOCKED"
	StatusActive   Status = "ACTIVE"
	StatusUnlocked Status = "UNLOCKED"
	StatusComplete Status = "COMPLETE"
)

// SectionView is the rendering-agnostic view of one section.
type SectionView struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Status Status           `json:"status"`
	Banner validator.Banner `json:"banner"`
}

// ProgressView is everything a renderer needs to draw the progress indicators.
type ProgressView struct {
	PerSection        []SectionView `json:"per_section"`
	CompletionPercent int           `json:"completion_percent"`
	MissingRequired   []string      `json:"missing_required_names"`
	Active            int           `json:"active"`
	SubmitEnabled     bool          `json:"submit_enabled"`
}

// Project derives the progress view. SubmitEnabled reflects the state at projection time only;
// the submit path re-checks with CanSubmit.
func Project(st State, schema *form.Schema, sig form.Signature) ProgressView {
	view := ProgressView{
		PerSection:      make([]SectionView, len(schema.Sections)),
		MissingRequired: []string{},
		Active:          st.Active,
	}

	required, done := 0, 0
	for i, sec := range schema.Sections {
		s := st.Sections[i]
		view.PerSection[i] = SectionView{
			ID:     sec.ID,
			Name:   sec.DisplayName,
			Status: statusOf(i, s, st.Active),
			Banner: s.Banner,
		}
		if sec.Optional {
			continue
		}
		required++
		if s.Satisfied {
			done++
		} else {
			view.MissingRequired = append(view.MissingRequired, sec.DisplayName)
		}
	}

	view.CompletionPercent = percent(done, required)
	view.SubmitEnabled = CanSubmit(st, schema, sig).Allowed
	return view
}

func statusOf(i int, s SectionState, active int) Status {
	switch {
	case s.Locked:
		return StatusLocked
	case s.Satisfied:
		return StatusComplete
	case i == active:
		return StatusActive
	default:
		return StatusUnlocked
	}
}

// percent rounds 100*done/total half-up using integer arithmetic.
func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

// SummaryEntry is one line of the side summary.
type SummaryEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summarize returns the at-a-glance summary of who the contract is for and who pays.
// Empty fields are left out.
func Summarize(fields form.FieldValues) []SummaryEntry {
	entries := []SummaryEntry{}
	for _, e := range []SummaryEntry{
		{"Patient", fields.Text(form.FieldPatientName)},
		{"Cell", fields.Text(form.FieldPatientCell)},
		{"Payer", fields.Text(form.FieldPaymentName)},
		{"Email", fields.Text(form.FieldPaymentEmail)},
	} {
		if e.Value != "" {
			entries = append(entries, e)
		}
	}
	return entries
}
