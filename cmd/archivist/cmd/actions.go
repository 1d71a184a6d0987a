package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"archivist/internal/application/commands"
	"archivist/internal/domain"
)

var actionsCmd = &cobra.Command{
	Use:     "actions",
	Aliases: []string{"a"},
	Short:   "Manage the next-actions queue",
	Long: `Manage the ordered next-actions queue.

Examples:
  archivist actions list
  archivist actions add "Book flights" --context "March trip"
  archivist actions done 3f2a9c1d
  archivist actions reorder 3f2a9c1d mail-0a1b2c3d4e`,
}

var (
	listAll  bool
	listJSON bool
)

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions in priority order",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		actions, err := commands.NewListActionsCommand(current.actions, listAll).Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(domain.ActionsDocument{Actions: actions})
		}
		if len(actions) == 0 {
			fmt.Fprintln(out, styleID.Render("No actions."))
			return nil
		}
		for i, a := range actions {
			fmt.Fprintln(out, renderAction(i+1, a, true))
		}
		return nil
	},
}

var (
	addKind    string
	addTarget  string
	addContext string
)

var actionsAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Append an action to the end of the queue",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		var target *string
		if cmd.Flags().Changed("target") {
			target = &addTarget
		}
		action, err := commands.NewCreateActionCommand(current.actions, a[0], domain.ActionKind(addKind), target, addContext).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render("Added"), styleID.Render(action.ID))
		return nil
	},
}

var (
	updateText    string
	updateContext string
)

var actionsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change an action's text or context",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		var patch domain.ActionPatch
		if cmd.Flags().Changed("text") {
			patch.Text = &updateText
		}
		if cmd.Flags().Changed("context") {
			patch.Context = &updateContext
		}
		action, err := commands.NewUpdateActionCommand(current.actions, a[0], patch).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderAction(0, action, true))
		return nil
	},
}

var doneReopen bool

var actionsDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an action completed",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		action, err := commands.NewCompleteActionCommand(current.actions, a[0], doneReopen, nil).Execute(cmd.Context())
		if err != nil {
			return err
		}
		verb := "Completed"
		if doneReopen {
			verb = "Reopened"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", styleSuccess.Render(verb), styleID.Render(action.ID), action.Text)
		return nil
	},
}

var actionsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an action",
	Args:    args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		action, err := commands.NewDeleteActionCommand(current.actions, a[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", styleSuccess.Render("Removed"), styleID.Render(action.ID), action.Text)
		return nil
	},
}

var actionsReorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Move the given actions to the front, in order",
	Args:  args(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		actions, err := commands.NewReorderActionsCommand(current.actions, a).Execute(cmd.Context())
		if err != nil {
			return err
		}
		for i, action := range actions {
			fmt.Fprintln(cmd.OutOrStdout(), renderAction(i+1, action, false))
		}
		return nil
	},
}

var actionsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an action's text and context in $EDITOR",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		res, err := commands.NewEditActionCommand(current.actions, current.opener(), a[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if !res.Changed {
			fmt.Fprintln(cmd.OutOrStdout(), styleID.Render("No changes."))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderAction(0, res.Action, true))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsListCmd, actionsAddCmd, actionsUpdateCmd, actionsDoneCmd,
		actionsDeleteCmd, actionsReorderCmd, actionsEditCmd)

	actionsListCmd.Flags().BoolVar(&listAll, "all", false, "include completed actions")
	actionsListCmd.Flags().BoolVar(&listJSON, "json", false, "print the queue as JSON")

	actionsAddCmd.Flags().StringVarP(&addKind, "type", "t", string(domain.KindAction), "action or pointer")
	actionsAddCmd.Flags().StringVar(&addTarget, "target", "", "what a pointer refers to, e.g. email:thread:<id>")
	actionsAddCmd.Flags().StringVar(&addContext, "context", "", "free-text notes")

	actionsUpdateCmd.Flags().StringVar(&updateText, "text", "", "new text")
	actionsUpdateCmd.Flags().StringVar(&updateContext, "context", "", "new context")

	actionsDoneCmd.Flags().BoolVar(&doneReopen, "reopen", false, "clear the completion instead")
}
