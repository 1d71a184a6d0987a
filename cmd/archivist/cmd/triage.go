package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"archivist/internal/application"
	"archivist/internal/application/commands"
	"archivist/internal/domain"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Review the communication triage list",
	Long: `Review and update the communication triage list.

Statuses: ` + domain.StatusList() + `

Examples:
  archivist triage list --status needs-response
  archivist triage status t1 replied
  archivist triage draft t1 --copy
  archivist triage refresh`,
}

var (
	triageStatusFilter string
	triageJSON         bool
)

var triageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List triage items",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		var filter domain.TriageStatus
		if triageStatusFilter != "" {
			st, err := application.ValidateTriageStatus(triageStatusFilter)
			if err != nil {
				return err
			}
			filter = st
		}

		doc, err := commands.NewListTriageCommand(current.triage).Execute(cmd.Context())
		if err != nil {
			return err
		}
		items := make([]domain.TriageItem, 0, len(doc.Items))
		for _, it := range doc.Items {
			if filter == "" || it.Status == filter {
				items = append(items, it)
			}
		}

		out := cmd.OutOrStdout()
		if triageJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(domain.TriageDocument{Generated: doc.Generated, Items: items})
		}
		if doc.Generated != nil {
			fmt.Fprintln(out, styleID.Render("generated "+*doc.Generated))
		}
		if len(items) == 0 {
			fmt.Fprintln(out, styleID.Render("No triage items."))
			return nil
		}
		for _, it := range items {
			fmt.Fprintf(out, "%s %s  %s  %s\n", renderStatus(it.Status), styleID.Render(it.ID), styleTitle.Render(it.FromName), it.Subject)
			if it.Summary != "" {
				fmt.Fprintln(out, "    "+styleContext.Render(it.Summary))
			}
		}
		return nil
	},
}

var triageStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set a triage item's status",
	Args:  args(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, a []string) error {
		item, err := commands.NewUpdateTriageStatusCommand(current.triage, a[0], a[1]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleID.Render(item.ID), renderStatus(item.Status))
		return nil
	},
}

var draftCopy bool

var triageDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Draft a reply to a triage item",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), current.cfg.Timeouts.Generate)
		defer cancel()

		mail, err := current.mail(ctx)
		if err != nil {
			return err
		}
		res, err := commands.NewDraftReplyCommand(current.triage, mail, current.contacts(ctx), current.generator(), a[0]).Execute(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Draft)
		if !res.HasRelationship {
			fmt.Fprintln(cmd.ErrOrStderr(), styleID.Render("(no relationship notes found)"))
		}
		if draftCopy {
			if err := clipboard.WriteAll(res.Draft); err != nil {
				return fmt.Errorf("copy draft to clipboard: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), styleSuccess.Render("Copied to clipboard."))
		}
		return nil
	},
}

var triageRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate the triage file in the background",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		run, err := commands.NewRefreshTriageCommand(current.runner()).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s pid %d, log %s\n", styleSuccess.Render("Started"), run.PID, run.LogPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
	triageCmd.AddCommand(triageListCmd, triageStatusCmd, triageDraftCmd, triageRefreshCmd)

	triageListCmd.Flags().StringVarP(&triageStatusFilter, "status", "s", "", "only items with this status")
	triageListCmd.Flags().BoolVar(&triageJSON, "json", false, "print items as JSON")
	triageDraftCmd.Flags().BoolVar(&draftCopy, "copy", false, "also copy the draft to the clipboard")
}
