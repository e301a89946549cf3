package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/privaudit/internal/cliconfig"
	"github.com/darmiel/privaudit/pkg/client"
)

var loginCmd = &cobra.Command{
	Use:   "login TOKEN",
	Short: "Save an admin session token for a privaudit server",
	Long: `Verifies the admin session token against the server and saves it locally,
so that following commands (like 'privaudit audit log') are authenticated.

Tokens are minted with 'privaudit debug token' using the server's signing key.`,
	Example: `  privaudit login --server localhost:8080 "$(privaudit debug token -f privaudit.yaml)"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		server := viper.GetString(AddrKey)
		if server == "" {
			return fmt.Errorf("server address not configured, provide via --server or env")
		}
		host, err := cliconfig.HostKey(server)
		if err != nil {
			return err
		}

		// check the token against an admin route before saving it
		cli := client.New(server, client.WithAuthToken(token))
		log.Info().Msgf("Verifying token with server %q...", host)
		if _, correlation, err := cli.Stats(cmd.Context()); err != nil {
			return logError(err, correlation, "server rejected the token")
		}

		cfg, err := cliconfig.LoadOrEmpty()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.SetCredential(server, token); err != nil {
			return err
		}
		if err := cliconfig.Save(cfg); err != nil {
			return logError(err, "", "login succeeded but could not save credentials")
		}

		logSuccess("saved credentials for %s", bold(host))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
