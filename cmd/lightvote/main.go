package main

import (
	"context"

	"github.com/lightvote/lightvote/cmd/lightvote/commands"
	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/cli"
	"github.com/lightvote/lightvote/libs/log"
)

func main() {
	conf := config.DefaultConfig()
	logger := log.MustNewDefaultLogger(conf.LogFormat, conf.LogLevel)

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeVerifyCommand(conf, logger),
		commands.MakeScanCommand(conf, logger),
		commands.VersionCmd,
	)

	cli.Execute(context.Background(), rcmd)
}
