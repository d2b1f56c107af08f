package commands

import (
	"github.com/spf13/cobra"

	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/log"
)

// MakeInitCommand constructs the command writing the config file of the
// home directory. The file is rewritten from the effective configuration,
// so values already in it are kept unless overridden by flags or the
// environment.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the config file of the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			logger.Info("Generated config file", "path", conf.ConfigFile())
			return nil
		},
	}
	addClientFlags(cmd, conf)
	return cmd
}
