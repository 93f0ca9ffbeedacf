package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/modelplane/modelplane"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modelplane %s\nGit:  %s\nGo:   %s\n",
			modelplane.Version, modelplane.GitHash, runtime.Version())
	},
}
