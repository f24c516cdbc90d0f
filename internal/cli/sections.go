package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the form sections and their required inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema()
		if err != nil {
			return err
		}
		writeSections(os.Stdout, schema)
		return nil
	},
}

func writeSections(w io.Writer, schema *form.Schema) {
	fmt.Fprintf(w, "Schema v%s (%d sections)\n", schema.Version, len(schema.Sections))
	for i, sec := range schema.Sections {
		branch := "├── "
		indent := "│   "
		if i == len(schema.Sections)-1 {
			branch = "└── "
			indent = "    "
		}
		label := fmt.Sprintf("%d %s [%s]", i, sec.DisplayName, sec.ID)
		if sec.Optional {
			label += " (optional)"
		}
		fmt.Fprintln(w, branch+label)

		for _, line := range requirementLines(sec) {
			fmt.Fprintln(w, indent+line)
		}
	}
}

func requirementLines(sec form.SectionSpec) []string {
	var lines []string
	if len(sec.RequiredFields) > 0 {
		lines = append(lines, "text:     "+strings.Join(sec.RequiredFields, ", "))
	}
	if len(sec.RequiredRadios) > 0 {
		lines = append(lines, "choice:   "+strings.Join(sec.RequiredRadios, ", "))
	}
	if len(sec.RequiredCheckboxes) > 0 {
		lines = append(lines, "checkbox: "+strings.Join(sec.RequiredCheckboxes, ", "))
	}
	if sec.RequiresSignature {
		lines = append(lines, "signature")
	}
	return lines
}
