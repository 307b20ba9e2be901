package cmd

import (
	"fmt"

	"countme/internal/version"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("countme %s\n", info.String())
		fmt.Println(info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
