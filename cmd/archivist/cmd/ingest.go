package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"archivist/internal/application/ingest"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Queue actions for new mail from VIPs and known contacts",
	Long: `Sync mail, classify every thread since the last run and add a pointer
action for each one from a VIP or a known contact. VIP mail also sends
a Signal alert when an account is configured.

With --dry-run nothing is written and the cursor does not move.`,
	Args: args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc, err := current.ingestService(ctx)
		if err != nil {
			return err
		}
		report, err := svc.Run(ctx, ingest.Options{DryRun: ingestDryRun})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range report.Routed {
			mark := styleSuccess.Render("+")
			if !r.Added {
				mark = styleID.Render("=")
			}
			fmt.Fprintf(out, "%s %-7s %s  %s\n", mark, r.Class, styleID.Render(r.Action.ID), r.Action.Text)
		}

		verb := "added"
		count := report.Added
		if report.DryRun {
			verb = "would add"
			count = len(report.Routed)
		}
		fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf(
			"%d scanned, %d %s, %d duplicate, %d ignored, %d unknown since %s",
			report.Scanned, count, verb, report.Duplicates, report.Ignored, report.Unknown,
			report.Since.Local().Format("2006-01-02 15:04"))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVarP(&ingestDryRun, "dry-run", "n", false, "classify and report without writing")
}
