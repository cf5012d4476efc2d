package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of papyrus",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "papyrus version %s\n", strings.TrimSpace(papyrus.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
