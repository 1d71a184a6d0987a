package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"archivist/internal/adapters/obsidian"
	"archivist/internal/application/commands"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Search the relationship directory",
}

var contactsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy search people by name, slug or email",
	Long: `Fuzzy search people by name, slug or email.
Without a query every person is listed.`,
	Args: args(cobra.ArbitraryArgs),
	RunE: func(cmd *cobra.Command, a []string) error {
		ctx := cmd.Context()
		matches, err := commands.NewSearchContactsCommand(current.contacts(ctx), strings.Join(a, " ")).Execute(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(matches) == 0 {
			fmt.Fprintln(out, styleID.Render("No matches."))
			return nil
		}
		for _, m := range matches {
			line := fmt.Sprintf("%-24s %s", styleID.Render(m.Slug), styleTitle.Render(m.Name))
			if len(m.Emails) > 0 {
				line += "  " + strings.Join(m.Emails, ", ")
			}
			fmt.Fprintln(out, line)
			if m.Summary != "" {
				fmt.Fprintln(out, "    "+styleContext.Render(m.Summary))
			}
		}
		return nil
	},
}

var contactsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print a person's relationship notes",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		ctx := cmd.Context()
		c, err := commands.NewShowContactCommand(current.contacts(ctx), a[0]).Execute(ctx)
		if err != nil {
			return err
		}
		if showInObsidian {
			return obsidian.NewOpener(current.cfg.ArchiveDir).Open(c.Path)
		}
		fmt.Fprint(cmd.OutOrStdout(), c.Content)
		return nil
	},
}

var showInObsidian bool

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.AddCommand(contactsSearchCmd, contactsShowCmd)

	contactsShowCmd.Flags().BoolVar(&showInObsidian, "obsidian", false, "open the notes in Obsidian instead of printing them")
}
