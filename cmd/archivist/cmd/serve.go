package cmd

import (
	"github.com/spf13/cobra"

	"archivist/internal/adapters/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the console API over HTTP",
	Long: `Serve the console API over HTTP until interrupted.

Requests authenticate with the session cookie set by /login, an
"Authorization: Bearer <token>" header or a ?token= parameter.`,
	Args: args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		token, err := current.cfg.Token()
		if err != nil {
			return usageError{err}
		}
		console, err := current.console(ctx)
		if err != nil {
			return err
		}
		srv, err := httpapi.New(console, token, httpapi.WithLogger(current.log))
		if err != nil {
			return err
		}

		addr := current.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
