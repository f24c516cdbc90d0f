package validator

import (
	"strings"

	"github.com/sbenjam1n/clientintake/internal/form"
)

// Reason classes reported by failing field rules.
const (
	ReasonEmpty      = "empty"
	ReasonUnselected = "unselected"
	ReasonUnchecked  = "unchecked"
	ReasonUnsigned   = "unsigned"
)

// Result is the outcome of one field rule.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func pass() Result { return Result{OK: true} }

func fail(reason string) Result { return Result{Reason: reason} }

// RequiredText passes when the value has non-whitespace content.
func RequiredText(value string) Result {
	if strings.TrimSpace(value) == "" {
		return fail(ReasonEmpty)
	}
	return pass()
}

// RequiredChoice passes when an option of the radio group is selected.
func RequiredChoice(fields form.FieldValues, group string) Result {
	if _, ok := fields.Choice(group); !ok {
		return fail(ReasonUnselected)
	}
	return pass()
}

// RequiredCheckbox passes when the box is checked.
func RequiredCheckbox(checked bool) Result {
	if !checked {
		return fail(ReasonUnchecked)
	}
	return pass()
}

// SignatureRequired passes when a signature has been drawn. A nil signature counts as empty.
func SignatureRequired(sig form.Signature) Result {
	if sig == nil || sig.IsEmpty() {
		return fail(ReasonUnsigned)
	}
	return pass()
}
