package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of docent",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docent version %s\n", strings.TrimSpace(docent.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
