package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/fullform"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fullform",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fullform version %s\n", strings.TrimSpace(fullform.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
