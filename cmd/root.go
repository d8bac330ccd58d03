package main

import (
	"github.com/spf13/cobra"

	"github.com/lone-faerie/ps2mqtt/internal/build"
)

var RootCommand = &cobra.Command{
	Use:     "ps2mqtt",
	Short:   "Publish host statistics over MQTT",
	Version: build.Version(),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	RootCommand.AddGroup(
		&cobra.Group{ID: "commands", Title: "Commands:"},
	)
}
