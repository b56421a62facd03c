package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/ledger/internal/auth"
	"github.com/sakif/ledger/internal/server"
)

func (a *app) tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an API token for the owner",
		Long: `token prints a signed token for the configured owner. Send it to
"ledger serve" as "Authorization: Bearer <token>". auth.secret must be set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = a.cfg.Auth.TTL
			}
			tokens, err := auth.NewTokenService(a.cfg.Auth.Secret, ttl)
			if err != nil {
				return err
			}
			token, err := tokens.Generate(owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.ttl)")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			if err := a.ensureDBDir(); err != nil {
				return err
			}
			srv, err := server.New(cmd.Context(), server.Config{
				Port:        port,
				DBPath:      a.cfg.DB.Path,
				TokenSecret: a.cfg.Auth.Secret,
				TokenTTL:    a.cfg.Auth.TTL,
				MaxItemName: a.cfg.Ledger.MaxItemName,
			}, a.logger)
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.port)")
	return cmd
}
