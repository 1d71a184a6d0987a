package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"archivist/internal/application"
	"archivist/internal/application/commands"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Read mail from the local index",
}

var recentLimit int

var emailRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Recent inbox threads from people",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), current.cfg.Timeouts.MailSearch)
		defer cancel()

		mail, err := current.mail(ctx)
		if err != nil {
			return err
		}
		list, err := commands.NewRecentEmailCommand(mail, recentLimit).Execute(ctx)
		if err != nil {
			return err
		}
		return printThreads(cmd.OutOrStdout(), list)
	},
}

var emailSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search mail with a backend query",
	Args:  args(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), current.cfg.Timeouts.MailSearch)
		defer cancel()

		mail, err := current.mail(ctx)
		if err != nil {
			return err
		}
		list, err := commands.NewSearchEmailCommand(mail, strings.Join(a, " ")).Execute(ctx)
		if err != nil {
			return err
		}
		return printThreads(cmd.OutOrStdout(), list)
	},
}

var emailReadCmd = &cobra.Command{
	Use:   "read <thread-id>",
	Short: "Print every message of a thread",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), current.cfg.Timeouts.MailShow)
		defer cancel()

		mail, err := current.mail(ctx)
		if err != nil {
			return err
		}
		view, err := commands.NewReadThreadCommand(mail, a[0]).Execute(ctx)
		if err != nil {
			return err
		}
		if view.Error != "" {
			return application.Unavailable("mail", errors.New(view.Error))
		}

		out := cmd.OutOrStdout()
		for i, m := range view.Messages {
			if i > 0 {
				fmt.Fprintln(out, styleID.Render(strings.Repeat("-", 60)))
			}
			fmt.Fprintln(out, styleHeader.Render(m.Subject))
			fmt.Fprintf(out, "%s %s\n", styleID.Render("From:"), m.From)
			fmt.Fprintf(out, "%s %s\n", styleID.Render("To:  "), m.To)
			fmt.Fprintf(out, "%s %s\n\n", styleID.Render("Date:"), m.Date.Local().Format("Mon 2006-01-02 15:04"))
			fmt.Fprintln(out, strings.TrimRight(m.Body, "\n"))
		}
		return nil
	},
}

// printThreads renders a thread list; a mail failure becomes an Unavailable error
func printThreads(out io.Writer, list *commands.ThreadList) error {
	if list.Error != "" {
		return application.Unavailable("mail", errors.New(list.Error))
	}
	if len(list.Threads) == 0 {
		fmt.Fprintln(out, styleID.Render("No threads."))
		return nil
	}
	for _, t := range list.Threads {
		fmt.Fprintf(out, "%s  %s  %-24.24s  %s\n",
			styleID.Render(t.Timestamp.Local().Format("2006-01-02 15:04")),
			styleID.Render(t.ThreadID),
			t.Authors,
			t.Subject)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(emailCmd)
	emailCmd.AddCommand(emailRecentCmd, emailSearchCmd, emailReadCmd)

	emailRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 30, "maximum threads")
}
