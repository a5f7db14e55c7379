package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X main.version=..." at release build
// time; the zero value marks a development build.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the texlsd version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version)
		return nil
	},
}
