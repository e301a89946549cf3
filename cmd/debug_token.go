package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/api/middleware"
)

var (
	debugTokenSubject string
	debugTokenTTL     time.Duration
)

var debugTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin session token",
	Long: `Signs an admin session token with server.signing_key of the given configuration.
The token is printed to stdout, so it can be passed to 'privaudit login'.`,
	Example: `  privaudit debug token -f privaudit.yaml --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if f.ConfigPath == "" {
			return fmt.Errorf("config file not specified (use -f)")
		}
		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Server.SigningKey == "" {
			return fmt.Errorf("server.signing_key is not set in %s", f.ConfigPath)
		}

		token, err := middleware.SignAdminToken([]byte(cfg.Server.SigningKey), debugTokenSubject, debugTokenTTL)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugTokenCmd)

	f.bindConfigFlag(debugTokenCmd.Flags())
	debugTokenCmd.Flags().StringVar(&debugTokenSubject, "subject", "cli", "Subject of the token")
	debugTokenCmd.Flags().DurationVar(&debugTokenTTL, "ttl", 12*time.Hour, "Lifetime of the token")
}
