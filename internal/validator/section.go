package validator

import "github.com/sbenjam1n/clientintake/internal/form"

// Banner is the pass/fail message state shown under a section.
type Banner string

const (
	BannerComplete        Banner = "complete"
	BannerOptionalInfo    Banner = "optional-info"
	BannerMissingRequired Banner = "missing-required"
)

// SignatureFieldID tags the signature pad in field-level output.
const SignatureFieldID = "signature"

// FieldTag marks one input valid or invalid for inline error display.
type FieldTag struct {
	FieldID string `json:"field_id"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
}

// SectionResult is the outcome of validating one section.
type SectionResult struct {
	Satisfied bool       `json:"satisfied"`
	Banner    Banner     `json:"banner"`
	Fields    []FieldTag `json:"fields,omitempty"`
}

// ValidateSection reports whether a section's rules hold for the current values.
//
// A locked section is never satisfied and its inputs are not read: they may hold stale values
// from before it was locked. An optional section is always satisfied once unlocked and shows the
// complete banner; its field tags are still reported. While locked it shows optional-info.
func ValidateSection(sec form.SectionSpec, fields form.FieldValues, sig form.Signature, locked bool) SectionResult {
	if locked {
		return SectionResult{Banner: bannerFor(sec, true, false)}
	}

	var tags []FieldTag
	ok := true
	record := func(id string, r Result) {
		tags = append(tags, FieldTag{FieldID: id, Valid: r.OK, Reason: r.Reason})
		if !r.OK {
			ok = false
		}
	}

	for _, id := range sec.RequiredFields {
		record(id, RequiredText(fields.Text(id)))
	}
	for _, group := range sec.RequiredRadios {
		record(group, RequiredChoice(fields, group))
	}
	for _, id := range sec.RequiredCheckboxes {
		record(id, RequiredCheckbox(fields.Checked(id)))
	}
	if sec.RequiresSignature {
		record(SignatureFieldID, SignatureRequired(sig))
	}

	if sec.Optional {
		ok = true
	}
	return SectionResult{Satisfied: ok, Banner: bannerFor(sec, false, ok), Fields: tags}
}

func bannerFor(sec form.SectionSpec, locked, satisfied bool) Banner {
	switch {
	case locked && sec.Optional:
		return BannerOptionalInfo
	case satisfied:
		return BannerComplete
	default:
		return BannerMissingRequired
	}
}
