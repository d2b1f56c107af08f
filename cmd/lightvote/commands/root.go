package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/cli"
	"github.com/lightvote/lightvote/libs/log"
)

// ParseConfig retrieves the default environment configuration,
// sets up the lightvote root and ensures that the root exists
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for lightvote.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lightvote",
		Short: "Check that a transaction landed and that its slot was voted final, without trusting the RPC node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			if err := config.EnsureRoot(conf.RootDir); err != nil {
				return err
			}
			return log.OverrideWithNewLogger(logger, conf.LogFormat, conf.LogLevel)
		},
	}
	cmd.PersistentFlags().String("log_level", conf.LogLevel, "log level (debug | info | warn | error)")
	cmd.PersistentFlags().String("log_format", conf.LogFormat, "log format (plain | json)")
	// flags and config file are bound before PersistentPreRunE runs
	return cli.PrepareBaseCmd(cmd, "LV", os.ExpandEnv(filepath.Join("$HOME", config.DefaultLightvoteDir)))
}
