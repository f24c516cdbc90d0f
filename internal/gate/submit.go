package gate

import (
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/validator"
)

// SignatureBlocker is the blocker reported for an empty signature pad.
const SignatureBlocker = "Signature"

// Decision is the outcome of the pre-submit check. FirstOffending is the section the user should
// be taken to, or -1 when Allowed.
type Decision struct {
	Allowed        bool     `json:"allowed"`
	Blockers       []string `json:"blockers"`
	FirstOffending int      `json:"first_offending"`
}

// CanSubmit allows submission when every required section is satisfied and a signature exists.
// Blockers list unmet required sections in order, then the signature.
func CanSubmit(st State, schema *form.Schema, sig form.Signature) Decision {
	d := Decision{Blockers: []string{}, FirstOffending: -1}

	for i, sec := range schema.Sections {
		if sec.Optional || st.Sections[i].Satisfied {
			continue
		}
		d.Blockers = append(d.Blockers, sec.DisplayName)
		if d.FirstOffending < 0 {
			d.FirstOffending = i
		}
	}

	if !validator.SignatureRequired(sig).OK {
		d.Blockers = append(d.Blockers, SignatureBlocker)
		if d.FirstOffending < 0 {
			d.FirstOffending = schema.SignOff()
		}
	}

	d.Allowed = len(d.Blockers) == 0
	return d
}
