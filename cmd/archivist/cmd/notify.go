package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"archivist/internal/adapters/filesystem"
	"archivist/internal/application/commands"
	"archivist/internal/domain"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Track which actions have been seen",
}

var notifyUnseenCmd = &cobra.Command{
	Use:   "unseen",
	Short: "List open actions created since the last mark-seen",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := commands.NewGetUnseenCommand(current.actions, current.seen).Execute(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(res.Actions) == 0 {
			fmt.Fprintln(out, styleID.Render("Nothing new."))
			return nil
		}
		fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%d new", len(res.Actions))))
		printUnseen(out, res.Actions)
		return nil
	},
}

var notifyMarkSeenCmd = &cobra.Command{
	Use:   "mark-seen",
	Short: "Acknowledge every current action",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		at, err := commands.NewMarkSeenCommand(current.seen, nil).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render("Marked seen at"), at.Format("2006-01-02 15:04:05Z07:00"))
		return nil
	},
}

var notifyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print newly unseen actions as the queue changes",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		w := &unseenWatcher{announced: make(map[string]bool)}

		if err := w.check(ctx, out); err != nil {
			return err
		}
		return filesystem.WatchFile(ctx, current.actions.Path(), 0, current.log, func() {
			if err := w.check(ctx, out); err != nil {
				current.log.Warn("unseen check failed", "error", err)
			}
		})
	},
}

// unseenWatcher prints each unseen action once per watch session
type unseenWatcher struct {
	announced map[string]bool
}

func (w *unseenWatcher) check(ctx context.Context, out io.Writer) error {
	res, err := commands.NewGetUnseenCommand(current.actions, current.seen).Execute(ctx)
	if err != nil {
		return err
	}
	var fresh []domain.Action
	for _, a := range res.Actions {
		if !w.announced[a.ID] {
			w.announced[a.ID] = true
			fresh = append(fresh, a)
		}
	}
	printUnseen(out, fresh)
	return nil
}

func printUnseen(out io.Writer, actions []domain.Action) {
	for _, a := range actions {
		fmt.Fprintf(out, "%s  %s  %s\n", styleID.Render(a.Created.Local().Format("2006-01-02 15:04")), styleID.Render(a.ID), a.Text)
		if a.Context != "" {
			fmt.Fprintln(out, "    "+styleContext.Render(a.Context))
		}
	}
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyUnseenCmd, notifyMarkSeenCmd, notifyWatchCmd)
}
