// Package main запускает Discord-бота бесплатных раздач Epic Games Store.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "freegamesbot",
		Short:        "Discord bot announcing free games from the Epic Games Store",
		SilenceUsage: true,
		RunE:         runBot,
	}

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and run the daily announcement schedule",
		RunE:  runBot,
	})
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Fetch the catalog and print what the next cycle would announce",
		RunE:  runCheck,
	})

	return root
}
