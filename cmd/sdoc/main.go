package main

import (
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/cli/chat"
	"github.com/malonaz/sdoc/cli/docs"
	"github.com/malonaz/sdoc/cli/tui"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/webserver"
)

func main() {
	a := &app.App{}

	var configPath string
	tuiOpts := &tui.Opts{}
	rootCmd := &cobra.Command{
		Use:          "sdoc",
		Short:        "Ask questions about your documents",
		Version:      "1.0",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Load(configPath)
		},
		// Without a subcommand, open the interactive interface.
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a, tuiOpts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", configuration.DefaultPath, "Path of the configuration file")
	tui.RegisterFlags(rootCmd, tuiOpts)

	rootCmd.AddCommand(tui.NewCmd(a))
	rootCmd.AddCommand(docs.NewCmd(a))
	rootCmd.AddCommand(chat.NewCmd(a))
	rootCmd.AddCommand(chat.NewAskCmd(a))
	rootCmd.AddCommand(webserver.NewServeCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))

	// CheckErr exits, so the cache is closed first.
	err := rootCmd.Execute()
	a.Close()
	cobra.CheckErr(err)
}
