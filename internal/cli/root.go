// Package cli implements the skillctl command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skillchain/internal/client"
)

const (
	flagServer    = "server"
	flagToken     = "token"
	flagConfig    = "config"
	defaultServer = "http://localhost:8080"
	envPrefix     = "SKILLCTL"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	vp  *viper.Viper
	out io.Writer
}

// NewRootCommand builds the skillctl command tree writing results to out.
// Flags fall back to SKILLCTL_* environment variables, then to an optional config file.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{vp: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "skillctl",
		Short:         "Client for the skillchain credential ledger.",
		Long:          "skillctl mints, verifies and endorses skill credentials and reads ledger state.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "config file (yaml, json or toml)")
	flags.String(flagServer, defaultServer, "ledger API base URL")
	flags.String(flagToken, "", "bearer token identifying the signing account")

	root.AddCommand(
		a.mintCommand(),
		a.verifyCommand(),
		a.endorseCommand(),
		a.showCommand(),
		a.accountCredentialsCommand(),
		a.profileCommand(),
		a.balanceCommand(),
		a.nextIDCommand(),
		a.tokenCommand(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	a.vp.SetEnvPrefix(envPrefix)
	a.vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.vp.AutomaticEnv()
	if err := a.vp.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if cfgFile := a.vp.GetString(flagConfig); cfgFile != "" {
		a.vp.SetConfigFile(cfgFile)
		if err := a.vp.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return nil
}

func (a *app) client() *client.Client {
	return client.New(a.vp.GetString(flagServer), client.WithToken(a.vp.GetString(flagToken)))
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
