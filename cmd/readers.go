package cmd

import (
	"github.com/spf13/cobra"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "List available PC/SC readers",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listReaders(); err != nil {
			printError(err.Error())
		}
	},
}

func init() {
	rootCmd.AddCommand(readersCmd)
}
