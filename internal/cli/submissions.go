package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/spf13/cobra"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Inspect stored submissions",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		subs, err := st.List(ctx, limit)
		if err != nil {
			return err
		}
		total, err := st.Count(ctx)
		if err != nil {
			return err
		}
		writeSubmissionList(os.Stdout, subs, total)
		return nil
	},
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := context.Background()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sub, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sub)
		}
		writeSubmission(os.Stdout, sub)
		return nil
	},
}

func writeSubmissionList(w io.Writer, subs []store.Submission, total int64) {
	fmt.Fprintf(w, "Submissions (%d of %d):\n", len(subs), total)
	if len(subs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, s := range subs {
		n := submission.NotificationFor(submission.Record{Values: s.Values})
		fmt.Fprintf(w, "  %s  %s  client=%s payer=%s\n",
			s.ID, s.SubmittedAt.Local().Format(time.DateTime), n.ClientName, n.PayerName)
	}
}

func writeSubmission(w io.Writer, s *store.Submission) {
	fmt.Fprintf(w, "Submission %s\n", s.ID)
	fmt.Fprintf(w, "  submitted: %s\n", s.SubmittedAt.Format(time.RFC3339))
	signed := "no"
	if s.Signature != "" {
		signed = fmt.Sprintf("yes (%d bytes)", len(s.Signature))
	}
	fmt.Fprintf(w, "  signed:    %s\n", signed)

	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %s\n", k+":", s.Values[k])
	}
}

func init() {
	submissionsListCmd.Flags().Int("limit", 20, "Maximum submissions to list")
	submissionsShowCmd.Flags().Bool("json", false, "Print the submission as JSON")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsShowCmd)
}
