package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/gate"
	"github.com/sbenjam1n/clientintake/internal/validator"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <fields.json>",
	Short: "Show section gating for a set of field values",
	Long: `Evaluate reads field values from a JSON object and prints each section's
status, the completion percentage and what still blocks submission.

Values may be strings (text and choices), booleans (checkboxes) or
{"text": ..., "checked": ...} objects.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sigPath, _ := cmd.Flags().GetString("signature")
		asJSON, _ := cmd.Flags().GetBool("json")

		schema, err := loadSchema()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read fields: %w", err)
		}
		fields, err := parseFieldsJSON(data)
		if err != nil {
			return err
		}

		sig, err := loadSignature(sigPath)
		if err != nil {
			return err
		}

		st := gate.Recompute(schema, fields, sig)
		view := gate.Project(st, schema, sig)
		decision := gate.CanSubmit(st, schema, sig)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"progress": view, "sections": st.Sections, "decision": decision})
		}
		writeEvaluation(os.Stdout, schema, st, view, decision)
		return nil
	},
}

// parseFieldsJSON accepts a flat object of field id to string, bool or Value.
func parseFieldsJSON(data []byte) (form.FieldValues, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fields: %w", err)
	}
	fields := form.FieldValues{}
	for id, msg := range raw {
		var text string
		if err := json.Unmarshal(msg, &text); err == nil {
			fields[id] = form.Value{Text: text}
			continue
		}
		var checked bool
		if err := json.Unmarshal(msg, &checked); err == nil {
			fields[id] = form.Value{Checked: checked}
			continue
		}
		var v form.Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, fmt.Errorf("field %s: expected string, bool or {text, checked}", id)
		}
		fields[id] = v
	}
	return fields, nil
}

func loadSignature(path string) (form.Signature, error) {
	if path == "" {
		return form.NoSignature, nil
	}
	png, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	return form.SignatureFromPNG(png), nil
}

func writeEvaluation(w io.Writer, schema *form.Schema, st gate.State, view gate.ProgressView, d gate.Decision) {
	for i, sv := range view.PerSection {
		fmt.Fprintf(w, "%-9s %d %s\n", sv.Status, i, sv.Name)
		if st.Sections[i].Locked {
			continue
		}
		for _, tag := range st.Sections[i].Fields {
			if !tag.Valid {
				fmt.Fprintf(w, "            %s: %s\n", tag.FieldID, tag.Reason)
			}
		}
	}
	fmt.Fprintf(w, "\n%d%% complete\n", view.CompletionPercent)

	if d.Allowed {
		fmt.Fprintln(w, "Ready to submit")
		return
	}
	fmt.Fprintf(w, "Cannot submit yet. Missing: %s\n", strings.Join(d.Blockers, ", "))
	if d.FirstOffending >= 0 {
		fmt.Fprintf(w, "Continue at: %s\n", schema.Sections[d.FirstOffending].DisplayName)
	}
}

// bannerText is the message shown at the top of an unlocked section.
func bannerText(b validator.Banner) string {
	switch b {
	case validator.BannerComplete:
		return "Section complete"
	case validator.BannerOptionalInfo:
		return "This section is optional"
	default:
		return "Please complete the required fields"
	}
}

func init() {
	evaluateCmd.Flags().String("signature", "", "PNG file holding the drawn signature")
	evaluateCmd.Flags().Bool("json", false, "Print the evaluation as JSON")
}
