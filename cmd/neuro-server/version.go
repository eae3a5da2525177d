package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	neuroapi "github.com/CoolCat467/Neuro-API"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of neuro-server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("neuro-server version %s\n", strings.TrimSpace(neuroapi.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
